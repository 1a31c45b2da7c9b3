package domain

// Presentation mappings for the excluded UI layer. Each table must
// cover the full enum; completeness is enforced by tests against
// AllStatuses and the priority set.

var statusLabels = map[ComplaintStatus]string{
	ComplaintStatusPending:    "Pending",
	ComplaintStatusInProgress: "In Progress",
	ComplaintStatusCompleted:  "Completed",
	ComplaintStatusCancelled:  "Cancelled",
}

var statusColors = map[ComplaintStatus]string{
	ComplaintStatusPending:    "orange",
	ComplaintStatusInProgress: "blue",
	ComplaintStatusCompleted:  "green",
	ComplaintStatusCancelled:  "red",
}

var priorityLabels = map[ComplaintPriority]string{
	PriorityLow:    "Low",
	PriorityMedium: "Medium",
	PriorityHigh:   "High",
}

var priorityColors = map[ComplaintPriority]string{
	PriorityLow:    "green",
	PriorityMedium: "orange",
	PriorityHigh:   "red",
}

// Label returns the display label for the status.
func (s ComplaintStatus) Label() string {
	return statusLabels[s]
}

// Color returns the display color token for the status.
func (s ComplaintStatus) Color() string {
	return statusColors[s]
}

// Label returns the display label for the priority.
func (p ComplaintPriority) Label() string {
	return priorityLabels[p]
}

// Color returns the display color token for the priority.
func (p ComplaintPriority) Color() string {
	return priorityColors[p]
}
