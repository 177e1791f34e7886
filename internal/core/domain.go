package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  FinanceType = "income"
	Expense FinanceType = "expense"
)

const (
	Pink   Color = "pink"
	Blue   Color = "blue"
	Yellow Color = "yellow"
	Green  Color = "green"

	// Display tokens for finance rows.
	Credit Color = "emerald"
	Debit  Color = "rose"
)

const (
	DefaultColor    = Pink
	DefaultTime     = "00:00"
	MaxTitleLength  = 200
	MinPasswordSize = 6
	// bcrypt only hashes the first 72 bytes.
	MaxPasswordBytes = 72
)

type (
	FinanceType string

	Color string

	Profile struct {
		ID            string
		Name          string
		Phone         int64
		PasswordHash  string
		AvatarFileRef string
		Timezone      string
		Created       time.Time
		Updated       time.Time
	}

	Activity struct {
		ID          string
		UserID      string
		Title       string
		Date        time.Time // local midnight of the chosen day, stored in UTC
		Time        string    // HH:MM
		Color       Color
		Notes       string
		IsCompleted bool // carried for the recap; nothing sets it yet
		Created     time.Time
	}

	Finance struct {
		ID      string
		UserID  string
		Title   string
		Amount  int64
		Type    FinanceType
		Date    time.Time
		Created time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrEmptyTitle    = errors.New("title is required")
	ErrTitleTooLong  = errors.New("title too long (max 200 characters)")
	ErrMissingDate   = errors.New("date is required")
	ErrInvalidRange  = errors.New("end date must not be before start date")
	ErrRangeTooLong  = errors.New("date range must not exceed 365 days")
	ErrInvalidColor  = errors.New("invalid color")
	ErrInvalidType   = errors.New("invalid finance type")
	ErrInvalidTime   = errors.New("invalid time, expected HH:MM")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidPhone  = errors.New("phone must be numeric")
	ErrWeakPassword  = errors.New("password must be at least 6 characters")
	ErrLongPassword  = errors.New("password must be at most 72 bytes")
	ErrEmptyName     = errors.New("name is required")
	ErrInvalidTZ     = errors.New("unknown timezone")

	ErrNotAuthenticated   = errors.New("must be logged in")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNameTaken          = errors.New("name already registered")

	ErrNotFound = errors.New("record not found")
)

// IsValidation reports whether err is one of the input validation errors.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrEmptyTitle, ErrTitleTooLong, ErrMissingDate,
		ErrInvalidRange, ErrRangeTooLong, ErrInvalidColor, ErrInvalidType,
		ErrInvalidTime, ErrInvalidMonth, ErrInvalidPhone, ErrWeakPassword,
		ErrLongPassword, ErrEmptyName, ErrInvalidTZ,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ParseFinanceType accepts the canonical names and the Indonesian aliases
// used by older clients.
func ParseFinanceType(s string) (FinanceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "pemasukan":
		return Income, nil
	case "expense", "pengeluaran":
		return Expense, nil
	}
	return "", ErrInvalidType
}

// ParseColor returns DefaultColor for an empty value.
func ParseColor(s string) (Color, error) {
	switch c := Color(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return DefaultColor, nil
	case Pink, Blue, Yellow, Green:
		return c, nil
	}
	return "", ErrInvalidColor
}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour, Minute int
}

// String renders the zero-padded "HH:MM" form.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On returns the instant at c on day's calendar date in loc.
func (c Clock) On(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, loc)
}

// ParseClock accepts "H:MM" or "HH:MM". An empty value yields DefaultTime.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultTime
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, ErrInvalidTime
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if len(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func (f Finance) Validate() error {
	if f.Amount <= 0 {
		return ErrInvalidAmount
	}
	if err := validateTitle(f.Title); err != nil {
		return err
	}
	if f.Date.IsZero() {
		return ErrMissingDate
	}
	if f.Type != Income && f.Type != Expense {
		return ErrInvalidType
	}
	return nil
}

func (a Activity) Validate() error {
	if err := validateTitle(a.Title); err != nil {
		return err
	}
	if a.Date.IsZero() {
		return ErrMissingDate
	}
	if _, err := ParseClock(a.Time); err != nil {
		return err
	}
	if _, err := ParseColor(string(a.Color)); err != nil {
		return err
	}
	return nil
}

// DisplayColor returns the activity color, falling back to DefaultColor.
func (a Activity) DisplayColor() Color {
	if a.Color == "" {
		return DefaultColor
	}
	return a.Color
}

// Location resolves the profile timezone, falling back to def.
func (p Profile) Location(def *time.Location) *time.Location {
	if p.Timezone != "" {
		if loc, err := time.LoadLocation(p.Timezone); err == nil {
			return loc
		}
	}
	return def
}
