package session

import (
	"errors"
	"testing"
	"time"

	"dailymeow/internal/core"
)

func TestIssueAndParse(t *testing.T) {
	m := NewManager("0123456789abcdef", time.Hour, time.UTC)
	token, exp, err := m.Issue(core.Profile{ID: "user-1", Timezone: "Asia/Jakarta"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry in the past: %v", exp)
	}

	sess, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sess.UserID != "user-1" || sess.Loc().String() != "Asia/Jakarta" {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestParseFallsBackToDefaultLocation(t *testing.T) {
	jakarta, _ := time.LoadLocation("Asia/Jakarta")
	m := NewManager("0123456789abcdef", time.Hour, jakarta)
	token, _, _ := m.Issue(core.Profile{ID: "user-1"})
	sess, err := m.Parse(token)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Loc() != jakarta {
		t.Fatalf("expected default location, got %v", sess.Loc())
	}
}

func TestParseRejects(t *testing.T) {
	m := NewManager("0123456789abcdef", time.Hour, time.UTC)
	good, _, _ := m.Issue(core.Profile{ID: "user-1"})

	expired := NewManager("0123456789abcdef", time.Hour, time.UTC)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, _ := expired.Issue(core.Profile{ID: "user-1"})

	other := NewManager("another-secret-0000", time.Hour, time.UTC)
	foreign, _, _ := other.Issue(core.Profile{ID: "user-1"})

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not.a.token",
		"expired":      old,
		"wrong secret": foreign,
		"tampered":     good + "x",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Parse(token); !errors.Is(err, core.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	}
}
