package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"dailymeow/internal/core"
	"dailymeow/internal/store"
)

// TokenIssuer signs session tokens for a profile.
type TokenIssuer interface {
	Issue(p core.Profile) (string, time.Time, error)
}

// AvatarStore persists profile pictures and returns a file reference.
type AvatarStore interface {
	Save(ownerID string, r io.Reader) (string, error)
}

type Registration struct {
	Name     string
	Phone    string
	Password string
	Timezone string
}

type ProfileUpdate struct {
	Name     string
	Phone    string
	Timezone string
	Avatar   io.Reader // optional
}

// Login is the result of a successful authentication.
type Login struct {
	Profile   core.Profile
	Token     string
	ExpiresAt time.Time
}

type ProfileService struct {
	profiles  store.ProfileStore
	tokens    TokenIssuer
	avatars   AvatarStore
	defaultTZ string
	hashCost  int
}

func NewProfileService(profiles store.ProfileStore, tokens TokenIssuer, avatars AvatarStore, defaultTZ string) *ProfileService {
	return &ProfileService{
		profiles:  profiles,
		tokens:    tokens,
		avatars:   avatars,
		defaultTZ: defaultTZ,
		hashCost:  bcrypt.DefaultCost,
	}
}

func parsePhone(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, core.ErrInvalidPhone
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, core.ErrInvalidPhone
	}
	return n, nil
}

func (s *ProfileService) timezone(tz string) (string, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return s.defaultTZ, nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidTZ, tz)
	}
	return tz, nil
}

// Register creates a profile and signs the caller in.
func (s *ProfileService) Register(ctx context.Context, in Registration) (Login, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Login{}, core.ErrEmptyName
	}
	phone, err := parsePhone(in.Phone)
	if err != nil {
		return Login{}, err
	}
	if len(in.Password) < core.MinPasswordSize {
		return Login{}, core.ErrWeakPassword
	}
	if len(in.Password) > core.MaxPasswordBytes {
		return Login{}, core.ErrLongPassword
	}
	tz, err := s.timezone(in.Timezone)
	if err != nil {
		return Login{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return Login{}, fmt.Errorf("hash password: %w", err)
	}
	p, err := s.profiles.CreateProfile(ctx, core.Profile{
		Name:         name,
		Phone:        phone,
		PasswordHash: string(hash),
		Timezone:     tz,
	})
	if err != nil {
		return Login{}, fmt.Errorf("create profile: %w", err)
	}
	slog.InfoContext(ctx, "Profile registered", "user_id", p.ID)
	return s.issue(p)
}

// Login verifies a name and password. Unknown names and wrong passwords
// both report core.ErrInvalidCredentials.
func (s *ProfileService) Login(ctx context.Context, name, password string) (Login, error) {
	p, err := s.profiles.GetProfileByName(ctx, strings.TrimSpace(name))
	if errors.Is(err, core.ErrNotFound) {
		return Login{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return Login{}, fmt.Errorf("load profile: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		slog.WarnContext(ctx, "Login rejected", "user_id", p.ID)
		return Login{}, core.ErrInvalidCredentials
	}
	return s.issue(p)
}

func (s *ProfileService) issue(p core.Profile) (Login, error) {
	token, exp, err := s.tokens.Issue(p)
	if err != nil {
		return Login{}, err
	}
	return Login{Profile: p, Token: token, ExpiresAt: exp}, nil
}

func (s *ProfileService) Get(ctx context.Context, sess core.Session) (core.Profile, error) {
	if !sess.Valid() {
		return core.Profile{}, core.ErrNotAuthenticated
	}
	p, err := s.profiles.GetProfile(ctx, sess.UserID)
	if err != nil {
		return core.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// Update changes the non-empty fields of in. A new avatar replaces the
// previous one.
func (s *ProfileService) Update(ctx context.Context, sess core.Session, in ProfileUpdate) (core.Profile, error) {
	p, err := s.Get(ctx, sess)
	if err != nil {
		return core.Profile{}, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		p.Name = name
	}
	if strings.TrimSpace(in.Phone) != "" {
		if p.Phone, err = parsePhone(in.Phone); err != nil {
			return core.Profile{}, err
		}
	}
	if strings.TrimSpace(in.Timezone) != "" {
		if p.Timezone, err = s.timezone(in.Timezone); err != nil {
			return core.Profile{}, err
		}
	}
	if in.Avatar != nil {
		if s.avatars == nil {
			return core.Profile{}, errors.New("avatar uploads are not configured")
		}
		ref, err := s.avatars.Save(p.ID, in.Avatar)
		if err != nil {
			return core.Profile{}, err
		}
		p.AvatarFileRef = ref
	}

	updated, err := s.profiles.UpdateProfile(ctx, p)
	if err != nil {
		return core.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return updated, nil
}
