package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
	"github.com/siddhartha296/vechicle-service-portal/internal/events"
	"github.com/siddhartha296/vechicle-service-portal/pkg/apperrors"
)

func newTestService(complaints *mockComplaintRepo, history *mockHistoryRepo, dispatcher *mockDispatcher) *ComplaintService {
	deps := ComplaintDependencies{
		ComplaintRepo: complaints,
		HistoryRepo:   history,
		Logger:        zap.NewNop(),
	}
	if dispatcher != nil {
		deps.Dispatcher = dispatcher
	}
	return NewComplaintService(deps)
}

func validSubmitInput() SubmitInput {
	return SubmitInput{
		VehicleModel: "EV Sprint 400",
		Category:     domain.CategoryBattery,
		Priority:     domain.PriorityHigh,
		Description:  "Range drops 40% below 5C",
	}
}

func TestSubmitValidationFailureCreatesNothing(t *testing.T) {
	complaints := new(mockComplaintRepo)
	history := new(mockHistoryRepo)
	svc := newTestService(complaints, history, nil)

	input := validSubmitInput()
	input.Description = "   "

	created, err := svc.Submit(context.Background(), domain.CustomerScope("alice"), input)

	require.Error(t, err)
	assert.Nil(t, created)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	domainErr := apperrors.ToDomainError(err)
	assert.Contains(t, domainErr.Details, "description")
	complaints.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	history.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitCollectsAllFieldErrors(t *testing.T) {
	complaints := new(mockComplaintRepo)
	history := new(mockHistoryRepo)
	svc := newTestService(complaints, history, nil)

	_, err := svc.Submit(context.Background(), domain.CustomerScope("alice"), SubmitInput{
		Category: "tires",
		Priority: "urgent",
	})

	require.Error(t, err)
	details := apperrors.ToDomainError(err).Details
	assert.Contains(t, details, "vehicle_model")
	assert.Contains(t, details, "description")
	assert.Contains(t, details, "category")
	assert.Contains(t, details, "priority")
}

func TestSubmitForcesPendingStatusAndOwnership(t *testing.T) {
	complaints := new(mockComplaintRepo)
	history := new(mockHistoryRepo)
	dispatcher := new(mockDispatcher)
	svc := newTestService(complaints, history, dispatcher)

	now := time.Now()
	complaints.On("Create", mock.Anything, mock.AnythingOfType("*domain.Complaint")).
		Run(func(args mock.Arguments) {
			complaint := args.Get(1).(*domain.Complaint)
			complaint.ID = "c-1"
			complaint.CreatedAt = now
			complaint.UpdatedAt = now
		}).Return(nil)
	history.On("Create", mock.Anything, mock.MatchedBy(func(entry *domain.ComplaintEvent) bool {
		return entry.ComplaintID == "c-1" &&
			entry.ChangeType == domain.ChangeTypeCreated &&
			entry.NewValue == string(domain.ComplaintStatusPending)
	})).Return(nil)
	dispatcher.On("Publish", mock.Anything, mock.MatchedBy(func(event events.Event) bool {
		return event.Type == events.EventComplaintCreated &&
			event.ComplaintID == "c-1" &&
			event.OwnerID == "alice"
	})).Return(nil)

	created, err := svc.Submit(context.Background(), domain.CustomerScope("alice"), validSubmitInput())

	require.NoError(t, err)
	assert.Equal(t, "alice", created.UserID)
	assert.Equal(t, domain.ComplaintStatusPending, created.Status)
	complaints.AssertExpectations(t)
	history.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}

func TestSubmitPropagatesRepositoryError(t *testing.T) {
	complaints := new(mockComplaintRepo)
	history := new(mockHistoryRepo)
	svc := newTestService(complaints, history, nil)

	complaints.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

	created, err := svc.Submit(context.Background(), domain.CustomerScope("alice"), validSubmitInput())

	require.Error(t, err)
	assert.Nil(t, created)
	history.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSetStatusRequiresStaff(t *testing.T) {
	complaints := new(mockComplaintRepo)
	svc := newTestService(complaints, new(mockHistoryRepo), nil)

	_, err := svc.SetStatus(context.Background(), domain.CustomerScope("alice"), "c-1", domain.ComplaintStatusCompleted)

	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	complaints.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	svc := newTestService(new(mockComplaintRepo), new(mockHistoryRepo), nil)

	_, err := svc.SetStatus(context.Background(), domain.StaffScope("staff-1"), "c-1", "archived")

	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestSetStatusNotFound(t *testing.T) {
	complaints := new(mockComplaintRepo)
	svc := newTestService(complaints, new(mockHistoryRepo), nil)

	complaints.On("GetByID", mock.Anything, "missing").Return(nil, pgx.ErrNoRows)

	_, err := svc.SetStatus(context.Background(), domain.StaffScope("staff-1"), "missing", domain.ComplaintStatusCompleted)

	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestSetStatusAllowsAnyDirection(t *testing.T) {
	complaints := new(mockComplaintRepo)
	history := new(mockHistoryRepo)
	dispatcher := new(mockDispatcher)
	svc := newTestService(complaints, history, dispatcher)

	current := &domain.Complaint{ID: "c-1", UserID: "alice", Status: domain.ComplaintStatusCompleted}
	reverted := &domain.Complaint{ID: "c-1", UserID: "alice", Status: domain.ComplaintStatusPending, UpdatedAt: time.Now()}

	complaints.On("GetByID", mock.Anything, "c-1").Return(current, nil)
	complaints.On("Update", mock.Anything, "c-1", mock.MatchedBy(func(patch domain.ComplaintPatch) bool {
		return patch.Status != nil && *patch.Status == domain.ComplaintStatusPending && patch.StaffNotes == nil
	})).Return(reverted, nil)
	history.On("Create", mock.Anything, mock.MatchedBy(func(entry *domain.ComplaintEvent) bool {
		return entry.ChangeType == domain.ChangeTypeStatus &&
			entry.OldValue == string(domain.ComplaintStatusCompleted) &&
			entry.NewValue == string(domain.ComplaintStatusPending)
	})).Return(nil)
	dispatcher.On("Publish", mock.Anything, mock.MatchedBy(func(event events.Event) bool {
		return event.Type == events.EventComplaintStatusChanged && event.OwnerID == "alice"
	})).Return(nil)

	updated, err := svc.SetStatus(context.Background(), domain.StaffScope("staff-1"), "c-1", domain.ComplaintStatusPending)

	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusPending, updated.Status)
	complaints.AssertExpectations(t)
	history.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}

func TestSetStatusSameStatusIsLegalNoop(t *testing.T) {
	complaints := new(mockComplaintRepo)
	history := new(mockHistoryRepo)
	dispatcher := new(mockDispatcher)
	svc := newTestService(complaints, history, dispatcher)

	current := &domain.Complaint{ID: "c-1", UserID: "alice", Status: domain.ComplaintStatusInProgress}
	bumped := &domain.Complaint{ID: "c-1", UserID: "alice", Status: domain.ComplaintStatusInProgress, UpdatedAt: time.Now()}

	complaints.On("GetByID", mock.Anything, "c-1").Return(current, nil)
	complaints.On("Update", mock.Anything, "c-1", mock.Anything).Return(bumped, nil)
	history.On("Create", mock.Anything, mock.Anything).Return(nil)
	dispatcher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.SetStatus(context.Background(), domain.StaffScope("staff-1"), "c-1", domain.ComplaintStatusInProgress)

	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusInProgress, updated.Status)
	complaints.AssertCalled(t, "Update", mock.Anything, "c-1", mock.Anything)
}

func TestSetNotesRequiresStaff(t *testing.T) {
	svc := newTestService(new(mockComplaintRepo), new(mockHistoryRepo), nil)

	_, err := svc.SetNotes(context.Background(), domain.CustomerScope("alice"), "c-1", "note")

	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestSetNotesTrimsAndRecordsHistory(t *testing.T) {
	complaints := new(mockComplaintRepo)
	history := new(mockHistoryRepo)
	dispatcher := new(mockDispatcher)
	svc := newTestService(complaints, history, dispatcher)

	current := &domain.Complaint{ID: "c-1", UserID: "alice", StaffNotes: "old note"}
	annotated := &domain.Complaint{ID: "c-1", UserID: "alice", StaffNotes: "ordered replacement cell"}

	complaints.On("GetByID", mock.Anything, "c-1").Return(current, nil)
	complaints.On("Update", mock.Anything, "c-1", mock.MatchedBy(func(patch domain.ComplaintPatch) bool {
		return patch.StaffNotes != nil && *patch.StaffNotes == "ordered replacement cell" && patch.Status == nil
	})).Return(annotated, nil)
	history.On("Create", mock.Anything, mock.MatchedBy(func(entry *domain.ComplaintEvent) bool {
		return entry.ChangeType == domain.ChangeTypeNotes && entry.OldValue == "old note"
	})).Return(nil)
	dispatcher.On("Publish", mock.Anything, mock.MatchedBy(func(event events.Event) bool {
		return event.Type == events.EventComplaintNotesChanged
	})).Return(nil)

	updated, err := svc.SetNotes(context.Background(), domain.StaffScope("staff-1"), "c-1", "  ordered replacement cell  ")

	require.NoError(t, err)
	assert.Equal(t, "ordered replacement cell", updated.StaffNotes)
	complaints.AssertExpectations(t)
}

func TestPreviewTruncatesOnRuneBoundaries(t *testing.T) {
	assert.Equal(t, "brief note", preview("  brief note  ", 120))

	long := strings.Repeat("ö", 200)
	truncated := preview(long, 120)
	assert.True(t, utf8.ValidString(truncated), "truncation must not split a rune")
	assert.Equal(t, strings.Repeat("ö", 117)+"...", truncated)
	assert.Equal(t, 120, utf8.RuneCountInString(truncated))

	assert.Equal(t, "日本", preview("日本語のメモ", 2))
}

func TestHistoryForbiddenForOtherCustomer(t *testing.T) {
	complaints := new(mockComplaintRepo)
	history := new(mockHistoryRepo)
	svc := newTestService(complaints, history, nil)

	complaints.On("GetByID", mock.Anything, "c-1").
		Return(&domain.Complaint{ID: "c-1", UserID: "bob"}, nil)

	_, err := svc.History(context.Background(), domain.CustomerScope("alice"), "c-1")

	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	history.AssertNotCalled(t, "ListByComplaint", mock.Anything, mock.Anything)
}

func TestHistoryCustomerDoesNotSeeNoteEntries(t *testing.T) {
	complaints := new(mockComplaintRepo)
	history := new(mockHistoryRepo)
	svc := newTestService(complaints, history, nil)

	complaints.On("GetByID", mock.Anything, "c-1").
		Return(&domain.Complaint{ID: "c-1", UserID: "alice"}, nil)
	history.On("ListByComplaint", mock.Anything, "c-1").Return([]domain.ComplaintEvent{
		{ID: "e3", ChangeType: domain.ChangeTypeNotes},
		{ID: "e2", ChangeType: domain.ChangeTypeStatus},
		{ID: "e1", ChangeType: domain.ChangeTypeCreated},
	}, nil)

	entries, err := svc.History(context.Background(), domain.CustomerScope("alice"), "c-1")

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "e2", entries[0].ID)
	assert.Equal(t, "e1", entries[1].ID)
}

func TestHistoryStaffSeesEverything(t *testing.T) {
	complaints := new(mockComplaintRepo)
	history := new(mockHistoryRepo)
	svc := newTestService(complaints, history, nil)

	complaints.On("GetByID", mock.Anything, "c-1").
		Return(&domain.Complaint{ID: "c-1", UserID: "alice"}, nil)
	history.On("ListByComplaint", mock.Anything, "c-1").Return([]domain.ComplaintEvent{
		{ID: "e2", ChangeType: domain.ChangeTypeNotes},
		{ID: "e1", ChangeType: domain.ChangeTypeCreated},
	}, nil)

	entries, err := svc.History(context.Background(), domain.StaffScope("staff-1"), "c-1")

	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestListForScopeRoutesByRole(t *testing.T) {
	complaints := new(mockComplaintRepo)
	svc := newTestService(complaints, new(mockHistoryRepo), nil)

	staffRecords := []domain.Complaint{{ID: "c-1", UserID: "alice"}, {ID: "c-2", UserID: "bob"}}
	ownRecords := []domain.Complaint{{ID: "c-1", UserID: "alice"}}
	complaints.On("ListAll", mock.Anything).Return(staffRecords, nil)
	complaints.On("ListByOwner", mock.Anything, "alice").Return(ownRecords, nil)

	all, err := svc.ListForScope(context.Background(), domain.StaffScope("staff-1"))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := svc.ListForScope(context.Background(), domain.CustomerScope("alice"))
	require.NoError(t, err)
	assert.Len(t, own, 1)
}

func TestListForScopeReportsStoreUnavailable(t *testing.T) {
	complaints := new(mockComplaintRepo)
	svc := newTestService(complaints, new(mockHistoryRepo), nil)

	complaints.On("ListAll", mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))

	records, err := svc.ListForScope(context.Background(), domain.StaffScope("staff-1"))

	require.Error(t, err)
	assert.Nil(t, records)
	assert.True(t, apperrors.IsCode(err, "STORE_UNAVAILABLE"))
}
