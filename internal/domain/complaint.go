package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusPending    ComplaintStatus = "pending"
	ComplaintStatusInProgress ComplaintStatus = "in-progress"
	ComplaintStatusCompleted  ComplaintStatus = "completed"
	ComplaintStatusCancelled  ComplaintStatus = "cancelled"
)

// AllStatuses lists every recognized status, in display order.
var AllStatuses = []ComplaintStatus{
	ComplaintStatusPending,
	ComplaintStatusInProgress,
	ComplaintStatusCompleted,
	ComplaintStatusCancelled,
}

// Valid reports whether the status is a recognized enum value.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusPending, ComplaintStatusInProgress, ComplaintStatusCompleted, ComplaintStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a staff actor may move a complaint
// from s to next. Any recognized status may move to any other,
// including back to an earlier one: correcting a mis-set status is a
// normal operational need, not an error. Setting the current status
// again is a legal no-op that still bumps updated_at.
func (s ComplaintStatus) CanTransitionTo(next ComplaintStatus) bool {
	return s.Valid() && next.Valid()
}

// ComplaintCategory classifies the faulty subsystem.
type ComplaintCategory string

const (
	CategoryBattery    ComplaintCategory = "battery"
	CategoryMotor      ComplaintCategory = "motor"
	CategoryBrakes     ComplaintCategory = "brakes"
	CategoryElectrical ComplaintCategory = "electrical"
	CategoryMechanical ComplaintCategory = "mechanical"
	CategoryDisplay    ComplaintCategory = "display"
	CategoryOther      ComplaintCategory = "other"
)

// Valid reports whether the category is a recognized enum value.
func (c ComplaintCategory) Valid() bool {
	switch c {
	case CategoryBattery, CategoryMotor, CategoryBrakes, CategoryElectrical, CategoryMechanical, CategoryDisplay, CategoryOther:
		return true
	}
	return false
}

// ComplaintPriority enumerates urgency.
type ComplaintPriority string

const (
	PriorityLow    ComplaintPriority = "low"
	PriorityMedium ComplaintPriority = "medium"
	PriorityHigh   ComplaintPriority = "high"
)

// Valid reports whether the priority is a recognized enum value.
func (p ComplaintPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Complaint is the aggregate for equipment-service requests.
//
// UserID is set once at creation and never changes. UpdatedAt is
// bumped on every mutation, including no-op status sets, so
// UpdatedAt >= CreatedAt always holds. Complaints are never deleted;
// cancellation is a status, not removal.
type Complaint struct {
	ID           string
	UserID       string
	VehicleModel string
	Category     ComplaintCategory
	Priority     ComplaintPriority
	Description  string
	Status       ComplaintStatus
	StaffNotes   string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Owner carries submitter contact info on staff listings only.
	Owner *OwnerContact
}

// OwnerContact is the submitter contact joined into staff views.
type OwnerContact struct {
	Name  string
	Email string
	Phone string
}

// ComplaintPatch is a partial mutation applied through the update path.
// Nil fields are left untouched; updated_at is bumped regardless.
type ComplaintPatch struct {
	Status     *ComplaintStatus
	StaffNotes *string
}

// Empty reports whether the patch mutates nothing.
func (p ComplaintPatch) Empty() bool {
	return p.Status == nil && p.StaffNotes == nil
}

// StatusFilter narrows the displayed list of a staff view. It never
// affects aggregate counts, which always cover the whole scope.
type StatusFilter string

const (
	FilterAll        StatusFilter = "all"
	FilterPending    StatusFilter = "pending"
	FilterInProgress StatusFilter = "in-progress"
	FilterCompleted  StatusFilter = "completed"
)

// ParseStatusFilter maps a raw filter value to a StatusFilter.
// Unrecognized values behave as FilterAll.
func ParseStatusFilter(raw string) StatusFilter {
	switch StatusFilter(raw) {
	case FilterPending, FilterInProgress, FilterCompleted:
		return StatusFilter(raw)
	}
	return FilterAll
}

// Matches reports whether a complaint with the given status is visible
// under the filter.
func (f StatusFilter) Matches(status ComplaintStatus) bool {
	if f == FilterAll {
		return true
	}
	return string(f) == string(status)
}
