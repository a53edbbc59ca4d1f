package core

import "time"

// EventType names a write that the dashboard completed against the budget API.
type EventType string

const (
	EventIncomeUpdated      EventType = "income.updated"
	EventTransactionAdded   EventType = "transaction.added"
	EventTransactionDeleted EventType = "transaction.deleted"
)

// Event describes a successful write. Fields that do not apply to the type are zero.
type Event struct {
	Type          EventType
	Month         MonthKey
	TransactionID int64
	Amount        float64
	Category      string
	Income        float64
	OccurredAt    time.Time
}
