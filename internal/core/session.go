package core

import (
	"time"

	// Profile timezones must resolve in images without a zoneinfo database.
	_ "time/tzdata"
)

// Session is the authenticated caller of a request. It is built once per
// request and handed to every service call that needs an owner.
type Session struct {
	UserID   string
	Location *time.Location
}

// Valid reports whether the session carries an identity.
func (s Session) Valid() bool {
	return s.UserID != ""
}

// Loc never returns nil.
func (s Session) Loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}
