package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/siddhartha296/vechicle-service-portal/internal/api/dto"
	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
	"github.com/siddhartha296/vechicle-service-portal/internal/identity"
	"github.com/siddhartha296/vechicle-service-portal/internal/service"
	"github.com/siddhartha296/vechicle-service-portal/internal/viewsync"
	"github.com/siddhartha296/vechicle-service-portal/pkg/apperrors"
)

// ComplaintsHandler manages customer complaint endpoints.
type ComplaintsHandler struct {
	complaints *service.ComplaintService
	views      *viewsync.Registry
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaintService *service.ComplaintService, views *viewsync.Registry) *ComplaintsHandler {
	return &ComplaintsHandler{complaints: complaintService, views: views}
}

// Submit POST /complaints.
func (h *ComplaintsHandler) Submit(c *fiber.Ctx) error {
	session, err := customerSession(c)
	if err != nil {
		return err
	}
	var req dto.SubmitComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.SubmitInput{
		VehicleModel: req.VehicleModel,
		Category:     req.Category,
		Priority:     req.Priority,
		Description:  req.Description,
	}
	complaint, err := h.complaints.Submit(c.Context(), session.Scope(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": complaintResponse(complaint)})
}

// View GET /complaints/view. Activates the customer's scoped view on
// first read and returns the live snapshot; subsequent mutations are
// reflected without manual reload.
func (h *ComplaintsHandler) View(c *fiber.Ctx) error {
	session, err := customerSession(c)
	if err != nil {
		return err
	}
	controller, err := h.views.Activate(session.Scope())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": viewResponse(controller.Snapshot())})
}

// DeactivateView DELETE /complaints/view releases the customer's
// subscription.
func (h *ComplaintsHandler) DeactivateView(c *fiber.Ctx) error {
	session, err := customerSession(c)
	if err != nil {
		return err
	}
	h.views.Deactivate(session.Scope())
	return c.JSON(fiber.Map{"data": fiber.Map{"deactivated": true}})
}

// History GET /complaints/:id/history.
func (h *ComplaintsHandler) History(c *fiber.Ctx) error {
	session, err := customerSession(c)
	if err != nil {
		return err
	}
	entries, err := h.complaints.History(c.Context(), session.Scope(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

func customerSession(c *fiber.Ctx) (identity.Session, error) {
	session, ok := identity.SessionFromContext(c)
	if !ok || session.Role != domain.RoleCustomer {
		return identity.Session{}, apperrors.NewUnauthorized("customer required")
	}
	return session, nil
}

func complaintResponse(complaint *domain.Complaint) dto.ComplaintResponse {
	resp := dto.ComplaintResponse{
		ID:            complaint.ID,
		UserID:        complaint.UserID,
		VehicleModel:  complaint.VehicleModel,
		Category:      complaint.Category,
		Priority:      complaint.Priority,
		PriorityLabel: complaint.Priority.Label(),
		PriorityColor: complaint.Priority.Color(),
		Description:   complaint.Description,
		Status:        complaint.Status,
		StatusLabel:   complaint.Status.Label(),
		StatusColor:   complaint.Status.Color(),
		StaffNotes:    complaint.StaffNotes,
		CreatedAt:     complaint.CreatedAt,
		UpdatedAt:     complaint.UpdatedAt,
	}
	if complaint.Owner != nil {
		resp.Owner = &dto.OwnerContactResponse{
			Name:  complaint.Owner.Name,
			Email: complaint.Owner.Email,
			Phone: complaint.Owner.Phone,
		}
	}
	return resp
}

func viewResponse(snapshot viewsync.Snapshot) dto.ViewResponse {
	items := make([]dto.ComplaintResponse, 0, len(snapshot.View.Visible))
	for i := range snapshot.View.Visible {
		items = append(items, complaintResponse(&snapshot.View.Visible[i]))
	}
	resp := dto.ViewResponse{
		Items: items,
		Counts: dto.CountsResponse{
			Total:      snapshot.View.Counts.Total,
			Pending:    snapshot.View.Counts.Pending,
			InProgress: snapshot.View.Counts.InProgress,
			Completed:  snapshot.View.Counts.Completed,
			Cancelled:  snapshot.View.Counts.Cancelled,
		},
		Filter:  snapshot.View.Filter,
		Loaded:  snapshot.Loaded,
		Loading: snapshot.Loading,
		Stale:   snapshot.Err != nil,
	}
	if snapshot.Err != nil {
		resp.Error = apperrors.ToDomainError(snapshot.Err).Code
	}
	return resp
}

func historyResponses(entries []domain.ComplaintEvent) []dto.HistoryEntryResponse {
	resp := make([]dto.HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.HistoryEntryResponse{
			ID:         entry.ID,
			ActorID:    entry.ActorID,
			ActorRole:  entry.ActorRole,
			ChangeType: entry.ChangeType,
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return resp
}
