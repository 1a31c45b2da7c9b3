package repository

import (
	"context"

	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
)

// ComplaintEventRepository persists the audit history of a complaint.
type ComplaintEventRepository interface {
	Create(ctx context.Context, event *domain.ComplaintEvent) error
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.ComplaintEvent, error)
}

type complaintEventRepository struct {
	db DB
}

// NewComplaintEventRepository instantiates repository.
func NewComplaintEventRepository(db DB) ComplaintEventRepository {
	return &complaintEventRepository{db: db}
}

func (r *complaintEventRepository) Create(ctx context.Context, event *domain.ComplaintEvent) error {
	const query = `
        INSERT INTO complaint_events (complaint_id, actor_id, actor_role, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		event.ComplaintID,
		event.ActorID,
		event.ActorRole,
		event.ChangeType,
		event.OldValue,
		event.NewValue,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *complaintEventRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.ComplaintEvent, error) {
	const query = `
        SELECT id, complaint_id, actor_id, actor_role, change_type, old_value, new_value, created_at
        FROM complaint_events
        WHERE complaint_id=$1
        ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ComplaintEvent
	for rows.Next() {
		var event domain.ComplaintEvent
		if err := rows.Scan(
			&event.ID,
			&event.ComplaintID,
			&event.ActorID,
			&event.ActorRole,
			&event.ChangeType,
			&event.OldValue,
			&event.NewValue,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
