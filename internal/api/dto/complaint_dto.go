package dto

import (
	"time"

	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
)

// SubmitComplaintRequest payload.
type SubmitComplaintRequest struct {
	VehicleModel string                   `json:"vehicle_model"`
	Category     domain.ComplaintCategory `json:"category"`
	Priority     domain.ComplaintPriority `json:"priority"`
	Description  string                   `json:"description"`
}

// SetStatusRequest payload.
type SetStatusRequest struct {
	Status domain.ComplaintStatus `json:"status"`
}

// SetNotesRequest payload.
type SetNotesRequest struct {
	Notes string `json:"notes"`
}

// OwnerContactResponse carries submitter contact on staff views.
type OwnerContactResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ComplaintResponse is one rendered complaint.
type ComplaintResponse struct {
	ID            string                   `json:"id"`
	UserID        string                   `json:"user_id"`
	VehicleModel  string                   `json:"vehicle_model"`
	Category      domain.ComplaintCategory `json:"category"`
	Priority      domain.ComplaintPriority `json:"priority"`
	PriorityLabel string                   `json:"priority_label"`
	PriorityColor string                   `json:"priority_color"`
	Description   string                   `json:"description"`
	Status        domain.ComplaintStatus   `json:"status"`
	StatusLabel   string                   `json:"status_label"`
	StatusColor   string                   `json:"status_color"`
	StaffNotes    string                   `json:"staff_notes,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
	Owner         *OwnerContactResponse    `json:"owner,omitempty"`
}

// CountsResponse is the scope-wide aggregate, independent of filter.
type CountsResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
}

// ViewResponse is a live view snapshot: list, counts and flags.
type ViewResponse struct {
	Items   []ComplaintResponse `json:"items"`
	Counts  CountsResponse      `json:"counts"`
	Filter  domain.StatusFilter `json:"filter"`
	Loaded  bool                `json:"loaded"`
	Loading bool                `json:"loading"`
	Stale   bool                `json:"stale"`
	Error   string              `json:"error,omitempty"`
}

// HistoryEntryResponse is one audit entry of a complaint.
type HistoryEntryResponse struct {
	ID         string                     `json:"id"`
	ActorID    string                     `json:"actor_id"`
	ActorRole  domain.Role                `json:"actor_role"`
	ChangeType domain.ComplaintChangeType `json:"change_type"`
	OldValue   string                     `json:"old_value,omitempty"`
	NewValue   string                     `json:"new_value,omitempty"`
	CreatedAt  time.Time                  `json:"created_at"`
}
