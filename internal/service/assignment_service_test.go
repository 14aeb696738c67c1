package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/message-router/internal/domain"
	"github.com/spec-kit/message-router/internal/events"
	apperrors "github.com/spec-kit/message-router/pkg/util"
)

type routingFixture struct {
	now         time.Time
	messages    *memMessageRepo
	keywords    *memKeywordRepo
	departments *memDepartmentRepo
	staff       *memStaffRepo
	assignments *memAssignmentRepo
	workloads   *memWorkloadRepo
	shifts      *memShiftRepo
	dispatcher  *recordingDispatcher
	service     *AssignmentService
}

func newRoutingFixture() *routingFixture {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	f := &routingFixture{
		now:         now,
		messages:    newMemMessageRepo(),
		keywords:    &memKeywordRepo{},
		departments: &memDepartmentRepo{departments: map[string]domain.Department{}},
		staff:       &memStaffRepo{},
		workloads:   newMemWorkloadRepo(),
		shifts:      &memShiftRepo{shifts: map[string]domain.StaffShift{}},
		dispatcher:  &recordingDispatcher{},
	}
	f.assignments = newMemAssignmentRepo(f.messages, f.workloads)

	scorer := NewStaffScorer(f.workloads, f.shifts).WithClock(func() time.Time { return now })
	f.service = NewAssignmentService(AssignmentDependencies{
		MessageRepo:    f.messages,
		KeywordRepo:    f.keywords,
		DepartmentRepo: f.departments,
		StaffRepo:      f.staff,
		AssignmentRepo: f.assignments,
		Scorer:         scorer,
		Dispatcher:     f.dispatcher,
	}).WithClock(func() time.Time { return now })
	return f
}

func (f *routingFixture) addDepartment(id string, active bool) {
	f.departments.departments[id] = domain.Department{ID: id, Name: id, IsActive: active}
}

func (f *routingFixture) addKeyword(id, token, departmentID string, priority int) {
	f.keywords.keywords = append(f.keywords.keywords, kw(id, token, departmentID, priority, true))
}

func (f *routingFixture) addStaff(id, departmentID string) {
	f.staff.staff = append(f.staff.staff, staffIn(id, departmentID))
}

func (f *routingFixture) addMessage(t *testing.T, content string) *domain.Message {
	t.Helper()
	message := &domain.Message{
		CustomerID: "cust-1",
		Content:    content,
		Platform:   "telegram",
		Direction:  domain.DirectionIncoming,
		Status:     domain.MessageStatusPending,
	}
	require.NoError(t, f.messages.Create(context.Background(), message))
	return message
}

func TestAssignMessageNotFound(t *testing.T) {
	f := newRoutingFixture()

	_, err := f.service.AssignMessage(context.Background(), "missing")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestAssignMessageRejectsOutgoing(t *testing.T) {
	f := newRoutingFixture()
	message := &domain.Message{
		CustomerID: "cust-1",
		Content:    "thanks for reaching out",
		Platform:   "telegram",
		Direction:  domain.DirectionOutgoing,
		Status:     domain.MessageStatusPending,
	}
	require.NoError(t, f.messages.Create(context.Background(), message))

	_, err := f.service.AssignMessage(context.Background(), message.ID)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestAssignMessageRejectsNonPending(t *testing.T) {
	f := newRoutingFixture()
	message := f.addMessage(t, "refund please")
	require.NoError(t, f.messages.transition(message.ID, domain.MessageStatusPending, domain.MessageStatusAssigned))

	_, err := f.service.AssignMessage(context.Background(), message.ID)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestAssignMessageNoKeywordMatch(t *testing.T) {
	f := newRoutingFixture()
	f.addDepartment("dept-billing", true)
	f.addKeyword("k1", "refund", "dept-billing", 3)
	message := f.addMessage(t, "hello there")

	result, err := f.service.AssignMessage(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoKeywordMatch, result.Outcome)
	assert.Nil(t, result.Assignment)

	stored, err := f.messages.GetByID(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MessageStatusPending, stored.Status, "unrouted message stays pending")

	unassigned := f.dispatcher.byType(events.EventMessageUnassigned)
	require.Len(t, unassigned, 1)
	payload, ok := unassigned[0].Payload.(events.MessageUnassignedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.ReasonNoKeywordMatch, payload.Reason)
}

func TestAssignMessageNoEligibleStaff(t *testing.T) {
	f := newRoutingFixture()
	f.addDepartment("dept-billing", true)
	f.addKeyword("k1", "refund", "dept-billing", 3)
	// Only a manager in the department; managers never enter the pool.
	f.staff.staff = append(f.staff.staff, domain.StaffMember{
		ID: "mgr", Role: domain.StaffRoleManager, DepartmentID: strPtr("dept-billing"), Active: true,
	})
	message := f.addMessage(t, "refund please")

	result, err := f.service.AssignMessage(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoEligibleStaff, result.Outcome)
	assert.Len(t, result.MatchedKeywords, 1)

	stored, err := f.messages.GetByID(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MessageStatusPending, stored.Status)

	unassigned := f.dispatcher.byType(events.EventMessageUnassigned)
	require.Len(t, unassigned, 1)
	payload := unassigned[0].Payload.(events.MessageUnassignedPayload)
	assert.Equal(t, domain.ReasonNoEligibleStaff, payload.Reason)
	assert.Equal(t, []string{"refund"}, payload.MatchedKeywords)
}

func TestAssignMessageInactiveDepartmentExcluded(t *testing.T) {
	f := newRoutingFixture()
	f.addDepartment("dept-billing", false)
	f.addKeyword("k1", "refund", "dept-billing", 3)
	f.addStaff("s1", "dept-billing")
	message := f.addMessage(t, "refund please")

	result, err := f.service.AssignMessage(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoEligibleStaff, result.Outcome)
}

func TestAssignMessageMissingDepartmentIsIntegrityViolation(t *testing.T) {
	f := newRoutingFixture()
	f.addKeyword("k1", "refund", "dept-gone", 3)
	message := f.addMessage(t, "refund please")

	_, err := f.service.AssignMessage(context.Background(), message.ID)
	assert.True(t, apperrors.IsCode(err, "INTEGRITY_VIOLATION"))
}

func TestAssignMessageHappyPath(t *testing.T) {
	f := newRoutingFixture()
	f.addDepartment("dept-billing", true)
	f.addKeyword("k1", "refund", "dept-billing", 3)
	f.addStaff("s1", "dept-billing")
	message := f.addMessage(t, "I need a refund")

	result, err := f.service.AssignMessage(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAssigned, result.Outcome)
	require.NotNil(t, result.Assignment)
	assert.Equal(t, "s1", result.Assignment.AssignedTo)
	// 30 keyword affinity + 20 no-history workload + 0 shift.
	assert.InDelta(t, 50.0, result.Assignment.MatchScore, 1e-9)
	assert.Contains(t, result.Assignment.Notes, "refund")

	stored, err := f.messages.GetByID(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MessageStatusAssigned, stored.Status)

	assert.InDelta(t, 1.0, f.workloads.current("s1"), 1e-9, "workload counter advances with the assignment")

	assigned := f.dispatcher.byType(events.EventMessageAssigned)
	require.Len(t, assigned, 1)
	payload := assigned[0].Payload.(events.MessageAssignedPayload)
	assert.Equal(t, "s1", payload.AssigneeStaffID)
	assert.Equal(t, result.Assignment.ID, payload.AssignmentID)
}

func TestAssignMessagePrefersLeastLoaded(t *testing.T) {
	f := newRoutingFixture()
	f.addDepartment("dept-billing", true)
	f.addKeyword("k1", "refund", "dept-billing", 3)
	f.addStaff("busy", "dept-billing")
	f.addStaff("idle", "dept-billing")
	f.workloads.put("busy", floatPtr(10), 9, f.now)
	f.workloads.put("idle", floatPtr(10), 1, f.now)
	message := f.addMessage(t, "refund please")

	result, err := f.service.AssignMessage(context.Background(), message.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Assignment)
	assert.Equal(t, "idle", result.Assignment.AssignedTo)
}

func TestAssignMessageConcurrentAttemptsSingleWinner(t *testing.T) {
	f := newRoutingFixture()
	f.addDepartment("dept-billing", true)
	f.addKeyword("k1", "refund", "dept-billing", 3)
	f.addStaff("s1", "dept-billing")
	message := f.addMessage(t, "refund please")

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.AssignMessage(context.Background(), message.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, apperrors.IsCode(err, "CONFLICT"), "losers surface as conflicts, got %v", err)
	}
	assert.Equal(t, 1, wins, "exactly one attempt commits")
	assert.InDelta(t, 1.0, f.workloads.current("s1"), 1e-9, "workload increments once")
}

func TestStartMessageByAssignee(t *testing.T) {
	f := newRoutingFixture()
	f.addDepartment("dept-billing", true)
	f.addKeyword("k1", "refund", "dept-billing", 3)
	f.addStaff("s1", "dept-billing")
	message := f.addMessage(t, "refund please")
	_, err := f.service.AssignMessage(context.Background(), message.ID)
	require.NoError(t, err)

	actor, err := f.staff.GetByID(context.Background(), "s1")
	require.NoError(t, err)
	require.NoError(t, f.service.StartMessage(context.Background(), message.ID, actor))

	stored, err := f.messages.GetByID(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MessageStatusInProgress, stored.Status)

	// A second start attempt finds the message out of the expected state.
	err = f.service.StartMessage(context.Background(), message.ID, actor)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestStartMessageForbiddenForOtherStaff(t *testing.T) {
	f := newRoutingFixture()
	f.addDepartment("dept-billing", true)
	f.addKeyword("k1", "refund", "dept-billing", 3)
	f.addStaff("s1", "dept-billing")
	f.addStaff("s2", "dept-billing")
	message := f.addMessage(t, "refund please")
	result, err := f.service.AssignMessage(context.Background(), message.ID)
	require.NoError(t, err)
	require.Equal(t, "s1", result.Assignment.AssignedTo)

	other, err := f.staff.GetByID(context.Background(), "s2")
	require.NoError(t, err)
	err = f.service.StartMessage(context.Background(), message.ID, other)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestStartMessageAllowedForManager(t *testing.T) {
	f := newRoutingFixture()
	f.addDepartment("dept-billing", true)
	f.addKeyword("k1", "refund", "dept-billing", 3)
	f.addStaff("s1", "dept-billing")
	message := f.addMessage(t, "refund please")
	_, err := f.service.AssignMessage(context.Background(), message.ID)
	require.NoError(t, err)

	manager := &domain.StaffMember{ID: "mgr", Role: domain.StaffRoleManager, Active: true}
	assert.NoError(t, f.service.StartMessage(context.Background(), message.ID, manager))
}

func TestCompleteMessageOnce(t *testing.T) {
	f := newRoutingFixture()
	f.addDepartment("dept-billing", true)
	f.addKeyword("k1", "refund", "dept-billing", 3)
	f.addStaff("s1", "dept-billing")
	message := f.addMessage(t, "refund please")
	_, err := f.service.AssignMessage(context.Background(), message.ID)
	require.NoError(t, err)

	actor, err := f.staff.GetByID(context.Background(), "s1")
	require.NoError(t, err)

	assignment, err := f.service.CompleteMessage(context.Background(), message.ID, actor)
	require.NoError(t, err)
	require.NotNil(t, assignment.CompletedAt)
	firstStamp := *assignment.CompletedAt

	stored, err := f.messages.GetByID(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MessageStatusCompleted, stored.Status)

	_, err = f.service.CompleteMessage(context.Background(), message.ID, actor)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	persisted, err := f.assignments.GetByMessageID(context.Background(), message.ID)
	require.NoError(t, err)
	require.NotNil(t, persisted.CompletedAt)
	assert.True(t, persisted.CompletedAt.Equal(firstStamp), "completion stamp never changes")

	completed := f.dispatcher.byType(events.EventMessageCompleted)
	assert.Len(t, completed, 1)
}

func TestCompleteMessageRequiresActor(t *testing.T) {
	f := newRoutingFixture()

	_, err := f.service.CompleteMessage(context.Background(), "m1", nil)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestGetAssignmentNotFound(t *testing.T) {
	f := newRoutingFixture()

	_, err := f.service.GetAssignment(context.Background(), "missing")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
