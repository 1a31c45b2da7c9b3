package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
	"github.com/siddhartha296/vechicle-service-portal/internal/events"
	"github.com/siddhartha296/vechicle-service-portal/internal/repository"
	"github.com/siddhartha296/vechicle-service-portal/pkg/apperrors"
)

// ComplaintService coordinates the complaint lifecycle: submission,
// staff triage and the audit history behind both.
type ComplaintService struct {
	complaints repository.ComplaintRepository
	history    repository.ComplaintEventRepository
	dispatcher events.Dispatcher
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// ComplaintDependencies bundles collaborators for the service.
type ComplaintDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	HistoryRepo   repository.ComplaintEventRepository
	Dispatcher    events.Dispatcher
	Cache         *redis.Client
	CacheTTL      time.Duration
	Logger        *zap.Logger
}

// SubmitInput describes complaint creation payload.
type SubmitInput struct {
	VehicleModel string
	Category     domain.ComplaintCategory
	Priority     domain.ComplaintPriority
	Description  string
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	return &ComplaintService{
		complaints: deps.ComplaintRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		cacheTTL:   deps.CacheTTL,
		logger:     deps.Logger,
	}
}

// Submit validates and creates a complaint for the acting customer.
// Status is forced to pending and ownership to the caller; neither is
// caller-controllable. On validation failure nothing is persisted, so
// the caller's draft stays resubmittable.
func (s *ComplaintService) Submit(ctx context.Context, actor domain.Scope, input SubmitInput) (*domain.Complaint, error) {
	details := map[string]any{}
	if strings.TrimSpace(input.VehicleModel) == "" {
		details["vehicle_model"] = "required"
	}
	if strings.TrimSpace(input.Description) == "" {
		details["description"] = "required"
	}
	if !input.Category.Valid() {
		details["category"] = "unrecognized value"
	}
	if !input.Priority.Valid() {
		details["priority"] = "unrecognized value"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid complaint", details)
	}

	complaint := &domain.Complaint{
		UserID:       actor.UserID,
		VehicleModel: strings.TrimSpace(input.VehicleModel),
		Category:     input.Category,
		Priority:     input.Priority,
		Description:  strings.TrimSpace(input.Description),
		Status:       domain.ComplaintStatusPending,
	}

	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, err
	}

	s.recordChange(ctx, actor, complaint.ID, domain.ChangeTypeCreated, "", string(complaint.Status))
	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintCreated,
		ComplaintID: complaint.ID,
		OwnerID:     complaint.UserID,
		Actor:       actorOf(actor),
		Payload: events.ComplaintCreatedPayload{
			VehicleModel: complaint.VehicleModel,
			Category:     complaint.Category,
			Priority:     complaint.Priority,
		},
	})
	return complaint, nil
}

// ListForScope returns the ordered record set visible to the scope.
// On connectivity failure it falls back to the last cached snapshot
// for the scope while still reporting the failure, so callers can
// render stale data and flag it.
func (s *ComplaintService) ListForScope(ctx context.Context, scope domain.Scope) ([]domain.Complaint, error) {
	var records []domain.Complaint
	var err error
	if scope.Role == domain.RoleStaff {
		records, err = s.complaints.ListAll(ctx)
	} else {
		records, err = s.complaints.ListByOwner(ctx, scope.UserID)
	}
	if err != nil {
		unavailable := apperrors.NewStoreUnavailable(err)
		if cached, ok := s.cachedList(ctx, scope); ok {
			s.logger.Warn("store unavailable, serving cached list",
				zap.String("scope", scope.Key()), zap.Error(err))
			return cached, unavailable
		}
		return nil, unavailable
	}
	s.cacheList(ctx, scope, records)
	return records, nil
}

// SetStatus applies a staff status transition. Any recognized status
// may follow any other, and re-setting the current status is a legal
// no-op; both still bump updated_at.
func (s *ComplaintService) SetStatus(ctx context.Context, actor domain.Scope, complaintID string, newStatus domain.ComplaintStatus) (*domain.Complaint, error) {
	if actor.Role != domain.RoleStaff {
		return nil, apperrors.NewForbidden("only staff may change status")
	}
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("unrecognized status", map[string]any{"status": string(newStatus)})
	}

	current, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, mapComplaintErr(err)
	}
	if !current.Status.CanTransitionTo(newStatus) {
		return nil, apperrors.NewConflict("illegal status transition", map[string]any{
			"from": string(current.Status), "to": string(newStatus),
		})
	}

	updated, err := s.complaints.Update(ctx, complaintID, domain.ComplaintPatch{Status: &newStatus})
	if err != nil {
		return nil, mapComplaintErr(err)
	}

	s.recordChange(ctx, actor, updated.ID, domain.ChangeTypeStatus, string(current.Status), string(newStatus))
	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintStatusChanged,
		ComplaintID: updated.ID,
		OwnerID:     updated.UserID,
		Actor:       actorOf(actor),
		Payload: events.ComplaintStatusChangedPayload{
			OldStatus: current.Status,
			NewStatus: newStatus,
		},
	})
	return updated, nil
}

// SetNotes replaces the staff-only annotation on a complaint.
func (s *ComplaintService) SetNotes(ctx context.Context, actor domain.Scope, complaintID, notes string) (*domain.Complaint, error) {
	if actor.Role != domain.RoleStaff {
		return nil, apperrors.NewForbidden("only staff may annotate complaints")
	}

	current, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, mapComplaintErr(err)
	}

	trimmed := strings.TrimSpace(notes)
	updated, err := s.complaints.Update(ctx, complaintID, domain.ComplaintPatch{StaffNotes: &trimmed})
	if err != nil {
		return nil, mapComplaintErr(err)
	}

	s.recordChange(ctx, actor, updated.ID, domain.ChangeTypeNotes, preview(current.StaffNotes, 120), preview(trimmed, 120))
	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintNotesChanged,
		ComplaintID: updated.ID,
		OwnerID:     updated.UserID,
		Actor:       actorOf(actor),
		Payload: events.ComplaintNotesChangedPayload{
			NotesPreview: preview(trimmed, 120),
		},
	})
	return updated, nil
}

// History lists a complaint's audit entries. Customers see their own
// complaints' creation and status entries; staff see everything.
func (s *ComplaintService) History(ctx context.Context, actor domain.Scope, complaintID string) ([]domain.ComplaintEvent, error) {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, mapComplaintErr(err)
	}
	if !actor.Covers(complaint.UserID) {
		return nil, apperrors.NewForbidden("access denied")
	}

	entries, err := s.history.ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleStaff {
		return entries, nil
	}

	allowed := make([]domain.ComplaintEvent, 0, len(entries))
	for _, entry := range entries {
		if entry.ChangeType == domain.ChangeTypeCreated || entry.ChangeType == domain.ChangeTypeStatus {
			allowed = append(allowed, entry)
		}
	}
	return allowed, nil
}

func (s *ComplaintService) recordChange(ctx context.Context, actor domain.Scope, complaintID string, changeType domain.ComplaintChangeType, oldValue, newValue string) {
	entry := &domain.ComplaintEvent{
		ComplaintID: complaintID,
		ActorID:     actor.UserID,
		ActorRole:   actor.Role,
		ChangeType:  changeType,
		OldValue:    oldValue,
		NewValue:    newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		// History is supplementary; the mutation itself succeeded.
		s.logger.Warn("failed to record complaint history",
			zap.String("complaint_id", complaintID), zap.Error(err))
	}
}

func (s *ComplaintService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *ComplaintService) cacheKey(scope domain.Scope) string {
	return "complaints:last:" + scope.Key()
}

func (s *ComplaintService) cacheList(ctx context.Context, scope domain.Scope, records []domain.Complaint) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(scope), payload, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("failed to cache scope list", zap.String("scope", scope.Key()), zap.Error(err))
	}
}

func (s *ComplaintService) cachedList(ctx context.Context, scope domain.Scope) ([]domain.Complaint, bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, err := s.cache.Get(ctx, s.cacheKey(scope)).Bytes()
	if err != nil {
		return nil, false
	}
	var records []domain.Complaint
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, false
	}
	return records, true
}

func mapComplaintErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("complaint", nil)
	}
	return err
}

func actorOf(scope domain.Scope) events.Actor {
	return events.Actor{Role: scope.Role, UserID: scope.UserID}
}

// preview truncates to max runes, never mid-rune, so non-ASCII notes
// stay valid UTF-8 in history entries.
func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) <= max {
		return body
	}
	runes := []rune(body)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
