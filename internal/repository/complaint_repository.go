package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
)

// ComplaintRepository encapsulates complaint persistence. Complaints
// are never deleted; cancellation is a status change.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	ListByOwner(ctx context.Context, userID string) ([]domain.Complaint, error)
	ListAll(ctx context.Context) ([]domain.Complaint, error)
	Update(ctx context.Context, id string, patch domain.ComplaintPatch) (*domain.Complaint, error)
}

type complaintRepository struct {
	db DB
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(db DB) ComplaintRepository {
	return &complaintRepository{db: db}
}

const complaintColumns = `id, user_id, vehicle_model, category, priority, description, status, staff_notes, created_at, updated_at`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (user_id, vehicle_model, category, priority, description, status, staff_notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		complaint.UserID,
		complaint.VehicleModel,
		complaint.Category,
		complaint.Priority,
		complaint.Description,
		complaint.Status,
		complaint.StaffNotes,
	).Scan(&complaint.ID, &complaint.CreatedAt, &complaint.UpdatedAt)
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE id=$1`, complaintColumns)
	var complaint domain.Complaint
	if err := scanComplaint(r.db.QueryRow(ctx, query, id), &complaint); err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *complaintRepository) ListByOwner(ctx context.Context, userID string) ([]domain.Complaint, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM complaints
        WHERE user_id=$1
        ORDER BY created_at DESC`, complaintColumns)
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows, false)
}

// ListAll returns every complaint joined with submitter contact info,
// newest first.
func (r *complaintRepository) ListAll(ctx context.Context) ([]domain.Complaint, error) {
	const query = `
        SELECT c.id, c.user_id, c.vehicle_model, c.category, c.priority, c.description,
               c.status, c.staff_notes, c.created_at, c.updated_at,
               u.name, u.email, u.phone
        FROM complaints c
        JOIN users u ON u.id = c.user_id
        ORDER BY c.created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows, true)
}

// Update applies a partial mutation and bumps updated_at. The store is
// last-writer-wins: concurrent updates to the same complaint are not
// detected, the later write prevails and viewers converge via refresh.
func (r *complaintRepository) Update(ctx context.Context, id string, patch domain.ComplaintPatch) (*domain.Complaint, error) {
	sets := []string{"updated_at=NOW()"}
	args := []any{}

	if patch.Status != nil {
		args = append(args, *patch.Status)
		sets = append(sets, fmt.Sprintf("status=$%d", len(args)))
	}
	if patch.StaffNotes != nil {
		args = append(args, *patch.StaffNotes)
		sets = append(sets, fmt.Sprintf("staff_notes=$%d", len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE complaints SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), complaintColumns)

	var complaint domain.Complaint
	if err := scanComplaint(r.db.QueryRow(ctx, query, args...), &complaint); err != nil {
		return nil, err
	}
	return &complaint, nil
}

func scanComplaint(row pgx.Row, complaint *domain.Complaint) error {
	return row.Scan(
		&complaint.ID,
		&complaint.UserID,
		&complaint.VehicleModel,
		&complaint.Category,
		&complaint.Priority,
		&complaint.Description,
		&complaint.Status,
		&complaint.StaffNotes,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
	)
}

func scanComplaints(rows pgx.Rows, withOwner bool) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for rows.Next() {
		var complaint domain.Complaint
		dest := []any{
			&complaint.ID,
			&complaint.UserID,
			&complaint.VehicleModel,
			&complaint.Category,
			&complaint.Priority,
			&complaint.Description,
			&complaint.Status,
			&complaint.StaffNotes,
			&complaint.CreatedAt,
			&complaint.UpdatedAt,
		}
		if withOwner {
			complaint.Owner = &domain.OwnerContact{}
			dest = append(dest, &complaint.Owner.Name, &complaint.Owner.Email, &complaint.Owner.Phone)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		result = append(result, complaint)
	}
	return result, rows.Err()
}
