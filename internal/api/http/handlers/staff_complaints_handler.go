package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/siddhartha296/vechicle-service-portal/internal/api/dto"
	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
	"github.com/siddhartha296/vechicle-service-portal/internal/identity"
	"github.com/siddhartha296/vechicle-service-portal/internal/service"
	"github.com/siddhartha296/vechicle-service-portal/internal/viewsync"
	"github.com/siddhartha296/vechicle-service-portal/pkg/apperrors"
)

// StaffComplaintsHandler manages staff triage endpoints.
type StaffComplaintsHandler struct {
	complaints *service.ComplaintService
	views      *viewsync.Registry
}

// NewStaffComplaintsHandler constructs handler.
func NewStaffComplaintsHandler(complaintService *service.ComplaintService, views *viewsync.Registry) *StaffComplaintsHandler {
	return &StaffComplaintsHandler{complaints: complaintService, views: views}
}

// View GET /staff/complaints/view?status=. The status query narrows
// the visible list; counts always cover all complaints. Unrecognized
// filter values behave as "all".
func (h *StaffComplaintsHandler) View(c *fiber.Ctx) error {
	session, err := staffSession(c)
	if err != nil {
		return err
	}
	controller, err := h.views.Activate(session.Scope())
	if err != nil {
		return err
	}
	if raw := c.Query("status"); raw != "" || c.Request().URI().QueryArgs().Has("status") {
		controller.SetFilter(domain.ParseStatusFilter(raw))
	}
	return c.JSON(fiber.Map{"data": viewResponse(controller.Snapshot())})
}

// DeactivateView DELETE /staff/complaints/view.
func (h *StaffComplaintsHandler) DeactivateView(c *fiber.Ctx) error {
	session, err := staffSession(c)
	if err != nil {
		return err
	}
	h.views.Deactivate(session.Scope())
	return c.JSON(fiber.Map{"data": fiber.Map{"deactivated": true}})
}

// SetStatus PATCH /staff/complaints/:id/status.
func (h *StaffComplaintsHandler) SetStatus(c *fiber.Ctx) error {
	session, err := staffSession(c)
	if err != nil {
		return err
	}
	var req dto.SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	complaint, err := h.complaints.SetStatus(c.Context(), session.Scope(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintResponse(complaint)})
}

// SetNotes PATCH /staff/complaints/:id/notes.
func (h *StaffComplaintsHandler) SetNotes(c *fiber.Ctx) error {
	session, err := staffSession(c)
	if err != nil {
		return err
	}
	var req dto.SetNotesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	complaint, err := h.complaints.SetNotes(c.Context(), session.Scope(), c.Params("id"), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintResponse(complaint)})
}

// History GET /staff/complaints/:id/history.
func (h *StaffComplaintsHandler) History(c *fiber.Ctx) error {
	session, err := staffSession(c)
	if err != nil {
		return err
	}
	entries, err := h.complaints.History(c.Context(), session.Scope(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

func staffSession(c *fiber.Ctx) (identity.Session, error) {
	session, ok := identity.SessionFromContext(c)
	if !ok || session.Role != domain.RoleStaff {
		return identity.Session{}, apperrors.NewUnauthorized("staff required")
	}
	return session, nil
}
