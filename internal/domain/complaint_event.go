package domain

import "time"

// ComplaintChangeType identifies what a history entry records.
type ComplaintChangeType string

const (
	ChangeTypeCreated ComplaintChangeType = "created"
	ChangeTypeStatus  ComplaintChangeType = "status"
	ChangeTypeNotes   ComplaintChangeType = "notes"
)

// ComplaintEvent is one row of a complaint's audit history. Status
// transitions are deliberately unconstrained, so the history is the
// only record of who moved a complaint and when.
type ComplaintEvent struct {
	ID          string
	ComplaintID string
	ActorID     string
	ActorRole   Role
	ChangeType  ComplaintChangeType
	OldValue    string
	NewValue    string
	CreatedAt   time.Time
}
