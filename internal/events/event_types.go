package events

import (
	"time"

	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated       EventType = "complaint_created"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
	EventComplaintNotesChanged  EventType = "complaint_notes_changed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role   domain.Role `json:"role"`
	UserID string      `json:"user_id"`
}

// Event represents a domain event emitted by services. OwnerID is
// carried so the realtime layer can route the change to owner-filtered
// customer scopes without re-reading the store.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ComplaintID string      `json:"complaint_id"`
	OwnerID     string      `json:"owner_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	VehicleModel string                   `json:"vehicle_model"`
	Category     domain.ComplaintCategory `json:"category"`
	Priority     domain.ComplaintPriority `json:"priority"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	OldStatus domain.ComplaintStatus `json:"old_status"`
	NewStatus domain.ComplaintStatus `json:"new_status"`
}

// ComplaintNotesChangedPayload payload.
type ComplaintNotesChangedPayload struct {
	NotesPreview string `json:"notes_preview"`
}
