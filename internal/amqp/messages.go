package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"budgetdash/internal/core"
)

// DashboardEvent is published after every successful write the dashboard makes
// against the budget API. Consumers use ID to drop duplicates.
type DashboardEvent struct {
	ID            string         `json:"id"`
	Type          core.EventType `json:"type"`
	Month         string         `json:"month"`
	TransactionID int64          `json:"transaction_id,omitempty"`
	Amount        float64        `json:"amount,omitempty"`
	Category      string         `json:"category,omitempty"`
	Income        *float64       `json:"income,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// NewDashboardEvent builds the wire message for ev with a fresh id
func NewDashboardEvent(ev core.Event) *DashboardEvent {
	ts := ev.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	msg := &DashboardEvent{
		ID:            uuid.NewString(),
		Type:          ev.Type,
		Month:         ev.Month.String(),
		TransactionID: ev.TransactionID,
		Amount:        ev.Amount,
		Category:      ev.Category,
		Timestamp:     ts.UTC(),
	}
	if ev.Type == core.EventIncomeUpdated {
		income := ev.Income
		msg.Income = &income
	}
	return msg
}

// ToJSON converts the message to JSON bytes
func (m *DashboardEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DashboardEventFromJSON parses a message body
func DashboardEventFromJSON(data []byte) (*DashboardEvent, error) {
	var msg DashboardEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
