package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"dailymeow/internal/core"
)

const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// FinanceEvent announces a finance record change to downstream mirrors.
// Upserts carry the full record so consumers never read the store.
type FinanceEvent struct {
	Action    string    `json:"action"`
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Type      string    `json:"type,omitempty"`
	Date      time.Time `json:"date,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewFinanceUpsert creates an event for a created record.
func NewFinanceUpsert(f core.Finance) *FinanceEvent {
	return &FinanceEvent{
		Action:    ActionUpsert,
		ID:        f.ID,
		UserID:    f.UserID,
		Title:     f.Title,
		Amount:    f.Amount,
		Type:      string(f.Type),
		Date:      f.Date.UTC(),
		Timestamp: time.Now(),
	}
}

// NewFinanceDelete creates an event for a removed record.
func NewFinanceDelete(userID, id string) *FinanceEvent {
	return &FinanceEvent{
		Action:    ActionDelete,
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

// Finance rebuilds the record carried by an upsert event.
func (m *FinanceEvent) Finance() core.Finance {
	return core.Finance{
		ID:     m.ID,
		UserID: m.UserID,
		Title:  m.Title,
		Amount: m.Amount,
		Type:   core.FinanceType(m.Type),
		Date:   m.Date,
	}
}

// ToJSON converts the message to JSON bytes
func (m *FinanceEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FinanceEventFromJSON parses and sanity-checks a message body.
func FinanceEventFromJSON(data []byte) (*FinanceEvent, error) {
	var msg FinanceEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("finance event without id")
	}
	if msg.Action != ActionUpsert && msg.Action != ActionDelete {
		return nil, fmt.Errorf("unknown finance event action %q", msg.Action)
	}
	return &msg, nil
}
