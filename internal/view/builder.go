package view

import (
	"sort"

	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
)

// Counts aggregates the full record set available to a scope. The
// active filter never changes the counts, only the visible list, so
// Pending+InProgress+Completed+Cancelled == Total always holds.
type Counts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
}

// View is the role-appropriate projection handed to the presentation
// layer.
type View struct {
	Visible []domain.Complaint
	Counts  Counts
	Filter  domain.StatusFilter
}

// Build derives a scoped view. It is a pure function of its inputs:
// a customer sees only their own complaints with no filter control,
// staff see everything narrowed by the active filter. Both lists are
// ordered newest-first.
func Build(records []domain.Complaint, scope domain.Scope, filter domain.StatusFilter) View {
	scoped := make([]domain.Complaint, 0, len(records))
	for _, record := range records {
		if scope.Covers(record.UserID) {
			scoped = append(scoped, record)
		}
	}

	sort.SliceStable(scoped, func(i, j int) bool {
		return scoped[i].CreatedAt.After(scoped[j].CreatedAt)
	})

	counts := Counts{Total: len(scoped)}
	for _, record := range scoped {
		switch record.Status {
		case domain.ComplaintStatusPending:
			counts.Pending++
		case domain.ComplaintStatusInProgress:
			counts.InProgress++
		case domain.ComplaintStatusCompleted:
			counts.Completed++
		case domain.ComplaintStatusCancelled:
			counts.Cancelled++
		}
	}

	if scope.Role == domain.RoleCustomer {
		// Customers always see their full list.
		filter = domain.FilterAll
	}

	visible := scoped
	if filter != domain.FilterAll {
		visible = make([]domain.Complaint, 0, len(scoped))
		for _, record := range scoped {
			if filter.Matches(record.Status) {
				visible = append(visible, record)
			}
		}
	}

	return View{Visible: visible, Counts: counts, Filter: filter}
}
