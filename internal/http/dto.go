package http

import (
	"time"

	"dailymeow/internal/core"
	"dailymeow/internal/services"
)

// Wire shapes. Dates are rendered in the caller's timezone.

type activityJSON struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	Color       core.Color `json:"color"`
	Notes       string     `json:"notes"`
	IsCompleted bool       `json:"isCompleted"`
	Created     time.Time  `json:"created"`
}

func toActivityJSON(a core.Activity, loc *time.Location) activityJSON {
	return activityJSON{
		ID:          a.ID,
		Title:       a.Title,
		Date:        core.DateKey(a.Date, loc),
		Time:        a.Time,
		Color:       a.DisplayColor(),
		Notes:       a.Notes,
		IsCompleted: a.IsCompleted,
		Created:     a.Created,
	}
}

func toActivitiesJSON(items []core.Activity, loc *time.Location) []activityJSON {
	out := make([]activityJSON, len(items))
	for i, a := range items {
		out[i] = toActivityJSON(a, loc)
	}
	return out
}

type financeJSON struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Amount    int64            `json:"amount"`
	Formatted string           `json:"formatted"`
	Type      core.FinanceType `json:"type"`
	Date      time.Time        `json:"date"`
	Day       string           `json:"day"`
	Created   time.Time        `json:"created"`
}

func toFinanceJSON(f core.Finance, loc *time.Location) financeJSON {
	return financeJSON{
		ID:        f.ID,
		Title:     f.Title,
		Amount:    f.Amount,
		Formatted: core.SignedRupiah(f.Type, f.Amount),
		Type:      f.Type,
		Date:      f.Date.In(loc),
		Day:       core.DateKey(f.Date, loc),
		Created:   f.Created,
	}
}

func toFinancesJSON(items []core.Finance, loc *time.Location) []financeJSON {
	out := make([]financeJSON, len(items))
	for i, f := range items {
		out[i] = toFinanceJSON(f, loc)
	}
	return out
}

type profileJSON struct {
	ID       string    `json:"id"`
	User     string    `json:"user"`
	Phone    int64     `json:"phone"`
	Avatar   string    `json:"avatar,omitempty"`
	Timezone string    `json:"timezone"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

func toProfileJSON(p core.Profile) profileJSON {
	out := profileJSON{
		ID:       p.ID,
		User:     p.Name,
		Phone:    p.Phone,
		Timezone: p.Timezone,
		Created:  p.Created,
		Updated:  p.Updated,
	}
	if p.AvatarFileRef != "" {
		out.Avatar = "/api/profile/avatar"
	}
	return out
}

type loginJSON struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	Profile   profileJSON `json:"profile"`
}

func toLoginJSON(l services.Login) loginJSON {
	return loginJSON{Token: l.Token, ExpiresAt: l.ExpiresAt, Profile: toProfileJSON(l.Profile)}
}

type historyJSON struct {
	Year    int                 `json:"year"`
	Month   int                 `json:"month"`
	Filter  string              `json:"filter"`
	Items   []financeJSON       `json:"items"`
	Summary core.FinanceSummary `json:"summary"`
}
