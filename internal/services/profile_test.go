package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"dailymeow/internal/core"
	"dailymeow/internal/session"
	"dailymeow/internal/store/memory"
)

type fakeAvatars struct {
	saved map[string]string
}

func (f *fakeAvatars) Save(ownerID string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[ownerID] = string(b)
	return ownerID + ".png", nil
}

func newProfileService(t *testing.T) (*ProfileService, *session.Manager, *fakeAvatars) {
	t.Helper()
	tokens := session.NewManager("test-secret-0123456789", time.Hour, wib)
	avatars := &fakeAvatars{}
	svc := NewProfileService(memory.New(), tokens, avatars, "Asia/Jakarta")
	svc.hashCost = bcrypt.MinCost
	return svc, tokens, avatars
}

func TestRegisterAndLogin(t *testing.T) {
	svc, tokens, _ := newProfileService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, Registration{Name: "Meow", Phone: "08123456789", Password: "rahasia"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if reg.Profile.PasswordHash == "rahasia" || reg.Profile.PasswordHash == "" {
		t.Fatalf("password must be hashed")
	}
	if reg.Profile.Phone != 8123456789 || reg.Profile.Timezone != "Asia/Jakarta" {
		t.Fatalf("profile = %+v", reg.Profile)
	}

	sess, err := tokens.Parse(reg.Token)
	if err != nil || sess.UserID != reg.Profile.ID {
		t.Fatalf("token session = %+v, %v", sess, err)
	}

	login, err := svc.Login(ctx, "meow", "rahasia")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if login.Profile.ID != reg.Profile.ID || login.Token == "" {
		t.Fatalf("login = %+v", login)
	}

	if _, err := svc.Login(ctx, "Meow", "salah!!"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "rahasia"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatalf("unknown name: %v", err)
	}
	if _, err := svc.Register(ctx, Registration{Name: "MEOW", Phone: "1", Password: "rahasia"}); !errors.Is(err, core.ErrNameTaken) {
		t.Fatalf("duplicate name: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		in   Registration
		want error
	}{
		{"empty name", Registration{Phone: "1", Password: "123456"}, core.ErrEmptyName},
		{"letters in phone", Registration{Name: "a", Phone: "08abc", Password: "123456"}, core.ErrInvalidPhone},
		{"short password", Registration{Name: "a", Phone: "1", Password: "12345"}, core.ErrWeakPassword},
		{"password over 72 bytes", Registration{Name: "a", Phone: "1", Password: strings.Repeat("x", 73)}, core.ErrLongPassword},
		{"bad timezone", Registration{Name: "a", Phone: "1", Password: "123456", Timezone: "Mars/Olympus"}, core.ErrInvalidTZ},
	}
	svc, _, _ := newProfileService(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("Register() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestProfileUpdate(t *testing.T) {
	svc, _, avatars := newProfileService(t)
	ctx := context.Background()
	reg, err := svc.Register(ctx, Registration{Name: "Meow", Phone: "1", Password: "123456"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	sess := core.Session{UserID: reg.Profile.ID, Location: wib}

	updated, err := svc.Update(ctx, sess, ProfileUpdate{
		Phone:    "0899",
		Timezone: "UTC",
		Avatar:   strings.NewReader("png-bytes"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "Meow" || updated.Phone != 899 || updated.Timezone != "UTC" {
		t.Fatalf("updated = %+v", updated)
	}
	if updated.AvatarFileRef != reg.Profile.ID+".png" || avatars.saved[reg.Profile.ID] != "png-bytes" {
		t.Fatalf("avatar not stored: %+v", updated)
	}

	got, err := svc.Get(ctx, sess)
	if err != nil || got.Phone != 899 {
		t.Fatalf("Get() = %+v, %v", got, err)
	}

	if _, err := svc.Get(ctx, core.Session{}); !errors.Is(err, core.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
