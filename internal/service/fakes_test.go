package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/message-router/internal/domain"
	"github.com/spec-kit/message-router/internal/events"
	"github.com/spec-kit/message-router/internal/repository"
)

// In-memory repository fakes. They mirror the persistence contracts the
// services rely on: pgx.ErrNoRows for absent rows, pgconn.PgError 23505 for
// unique violations, and the same guarded state transitions the SQL
// statements enforce.

type memMessageRepo struct {
	mu       sync.Mutex
	messages map[string]*domain.Message
}

var _ repository.MessageRepository = (*memMessageRepo)(nil)

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{messages: make(map[string]*domain.Message)}
}

func (r *memMessageRepo) Create(_ context.Context, message *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	now := time.Now()
	message.CreatedAt = now
	message.UpdatedAt = now
	clone := *message
	r.messages[message.ID] = &clone
	return nil
}

func (r *memMessageRepo) GetByID(_ context.Context, id string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *message
	return &clone, nil
}

func (r *memMessageRepo) MarkInProgress(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[id]
	if !ok || message.Status != domain.MessageStatusAssigned {
		return pgx.ErrNoRows
	}
	message.Status = domain.MessageStatusInProgress
	return nil
}

func (r *memMessageRepo) ListStalePending(_ context.Context, cutoff time.Time, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Message
	for _, message := range r.messages {
		if message.Direction != domain.DirectionIncoming {
			continue
		}
		if message.Status != domain.MessageStatusPending {
			continue
		}
		if !message.CreatedAt.Before(cutoff) {
			continue
		}
		result = append(result, *message)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// transition applies a guarded status change the way the SQL UPDATE does:
// zero rows affected maps to pgx.ErrNoRows.
func (r *memMessageRepo) transition(id string, from, to domain.MessageStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[id]
	if !ok || message.Status != from {
		return pgx.ErrNoRows
	}
	message.Status = to
	return nil
}

type memKeywordRepo struct {
	keywords []domain.Keyword
}

var _ repository.KeywordRepository = (*memKeywordRepo)(nil)

func (r *memKeywordRepo) ListActive(_ context.Context) ([]domain.Keyword, error) {
	var result []domain.Keyword
	for _, kw := range r.keywords {
		if kw.IsActive {
			result = append(result, kw)
		}
	}
	return result, nil
}

type memDepartmentRepo struct {
	departments map[string]domain.Department
}

var _ repository.DepartmentRepository = (*memDepartmentRepo)(nil)

func (r *memDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	dept, ok := r.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &dept, nil
}

func (r *memDepartmentRepo) ListByIDs(_ context.Context, ids []string) ([]domain.Department, error) {
	var result []domain.Department
	for _, id := range ids {
		if dept, ok := r.departments[id]; ok {
			result = append(result, dept)
		}
	}
	return result, nil
}

type memStaffRepo struct {
	staff []domain.StaffMember
}

var _ repository.StaffRepository = (*memStaffRepo)(nil)

func (r *memStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	for i := range r.staff {
		if r.staff[i].ID == id {
			clone := r.staff[i]
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memStaffRepo) ListAssignable(_ context.Context, departmentIDs []string) ([]domain.StaffMember, error) {
	wanted := make(map[string]struct{}, len(departmentIDs))
	for _, id := range departmentIDs {
		wanted[id] = struct{}{}
	}
	var result []domain.StaffMember
	for _, member := range r.staff {
		if !member.Assignable() || member.DepartmentID == nil {
			continue
		}
		if _, ok := wanted[*member.DepartmentID]; ok {
			result = append(result, member)
		}
	}
	return result, nil
}

type memWorkloadRepo struct {
	mu      sync.Mutex
	periods map[string]*domain.WorkloadPeriod // staffID + "|" + metric
}

var _ repository.WorkloadRepository = (*memWorkloadRepo)(nil)

func newMemWorkloadRepo() *memWorkloadRepo {
	return &memWorkloadRepo{periods: make(map[string]*domain.WorkloadPeriod)}
}

func (r *memWorkloadRepo) GetCurrent(_ context.Context, staffID, metricName string, at time.Time) (*domain.WorkloadPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	period, ok := r.periods[staffID+"|"+metricName]
	if !ok || at.Before(period.PeriodStart) || at.After(period.PeriodEnd.AddDate(0, 0, 1)) {
		return nil, pgx.ErrNoRows
	}
	clone := *period
	return &clone, nil
}

func (r *memWorkloadRepo) put(staffID string, target *float64, current float64, at time.Time) {
	start, end := domain.PeriodBounds(at)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.periods[staffID+"|"+domain.MetricMessagesHandled] = &domain.WorkloadPeriod{
		ID:           uuid.NewString(),
		StaffID:      staffID,
		MetricName:   domain.MetricMessagesHandled,
		TargetValue:  target,
		CurrentValue: current,
		PeriodStart:  start,
		PeriodEnd:    end,
	}
}

func (r *memWorkloadRepo) increment(inc repository.WorkloadIncrement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := inc.StaffID + "|" + inc.MetricName
	if period, ok := r.periods[key]; ok {
		period.CurrentValue++
		return
	}
	r.periods[key] = &domain.WorkloadPeriod{
		ID:           uuid.NewString(),
		StaffID:      inc.StaffID,
		MetricName:   inc.MetricName,
		CurrentValue: 1,
		PeriodStart:  inc.PeriodStart,
		PeriodEnd:    inc.PeriodEnd,
	}
}

func (r *memWorkloadRepo) current(staffID string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	period, ok := r.periods[staffID+"|"+domain.MetricMessagesHandled]
	if !ok {
		return 0
	}
	return period.CurrentValue
}

type memShiftRepo struct {
	shifts map[string]domain.StaffShift
}

var _ repository.ShiftRepository = (*memShiftRepo)(nil)

func (r *memShiftRepo) GetScheduledFor(_ context.Context, staffID string, date time.Time) (*domain.StaffShift, error) {
	shift, ok := r.shifts[staffID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	sy, sm, sd := shift.Date.Date()
	dy, dm, dd := date.Date()
	if sy != dy || sm != dm || sd != dd {
		return nil, pgx.ErrNoRows
	}
	return &shift, nil
}

type memAssignmentRepo struct {
	mu          sync.Mutex
	messages    *memMessageRepo
	workloads   *memWorkloadRepo
	byMessageID map[string]*domain.Assignment
}

var _ repository.AssignmentRepository = (*memAssignmentRepo)(nil)

func newMemAssignmentRepo(messages *memMessageRepo, workloads *memWorkloadRepo) *memAssignmentRepo {
	return &memAssignmentRepo{
		messages:    messages,
		workloads:   workloads,
		byMessageID: make(map[string]*domain.Assignment),
	}
}

func (r *memAssignmentRepo) CreateAssigned(_ context.Context, assignment *domain.Assignment, inc repository.WorkloadIncrement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byMessageID[assignment.MessageID]; exists {
		return &pgconn.PgError{Code: "23505", ConstraintName: "message_assignments_message_id_key"}
	}
	if err := r.messages.transition(assignment.MessageID, domain.MessageStatusPending, domain.MessageStatusAssigned); err != nil {
		return err
	}
	assignment.ID = uuid.NewString()
	assignment.AssignedAt = time.Now()
	clone := *assignment
	r.byMessageID[assignment.MessageID] = &clone
	r.workloads.increment(inc)
	return nil
}

func (r *memAssignmentRepo) GetByMessageID(_ context.Context, messageID string) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment, ok := r.byMessageID[messageID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *assignment
	return &clone, nil
}

func (r *memAssignmentRepo) Complete(_ context.Context, assignmentID string, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, assignment := range r.byMessageID {
		if assignment.ID != assignmentID {
			continue
		}
		if assignment.CompletedAt != nil {
			return pgx.ErrNoRows
		}
		stamp := completedAt
		assignment.CompletedAt = &stamp
		if err := r.messages.transition(assignment.MessageID, domain.MessageStatusInProgress, domain.MessageStatusCompleted); err != nil {
			if err := r.messages.transition(assignment.MessageID, domain.MessageStatusAssigned, domain.MessageStatusCompleted); err != nil {
				return err
			}
		}
		return nil
	}
	return pgx.ErrNoRows
}

func (r *memAssignmentRepo) ListByAssignee(_ context.Context, staffID string, limit, offset int) ([]domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Assignment
	for _, assignment := range r.byMessageID {
		if assignment.AssignedTo == staffID {
			result = append(result, *assignment)
		}
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type memCustomerRepo struct {
	mu    sync.Mutex
	byRef map[string]*domain.Customer
}

var _ repository.CustomerRepository = (*memCustomerRepo)(nil)

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{byRef: make(map[string]*domain.Customer)}
}

func (r *memCustomerRepo) Create(_ context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := customer.Platform + "|" + customer.PlatformRef
	if _, exists := r.byRef[key]; exists {
		return &pgconn.PgError{Code: "23505", ConstraintName: "customers_platform_platform_ref_key"}
	}
	customer.ID = uuid.NewString()
	clone := *customer
	r.byRef[key] = &clone
	return nil
}

func (r *memCustomerRepo) GetByPlatformRef(_ context.Context, platform, platformRef string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.byRef[platform+"|"+platformRef]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *customer
	return &clone, nil
}

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

var _ events.Dispatcher = (*recordingDispatcher)(nil)

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}
