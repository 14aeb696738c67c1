package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/message-router/internal/domain"
	"github.com/spec-kit/message-router/internal/events"
	"github.com/spec-kit/message-router/internal/observability"
	"github.com/spec-kit/message-router/internal/repository"
	apperrors "github.com/spec-kit/message-router/pkg/util"
)

// RoutingOutcome classifies the result of one assignment attempt.
type RoutingOutcome string

const (
	OutcomeAssigned        RoutingOutcome = "ASSIGNED"
	OutcomeNoKeywordMatch  RoutingOutcome = "NO_KEYWORD_MATCH"
	OutcomeNoEligibleStaff RoutingOutcome = "NO_ELIGIBLE_STAFF"
)

// RoutingResult is what AssignMessage hands back to the caller. The two
// unassigned outcomes are expected results, not errors; the message stays
// PENDING and a later retry is safe.
type RoutingResult struct {
	Outcome         RoutingOutcome
	Assignment      *domain.Assignment
	MatchedKeywords []domain.Keyword
}

// AssignmentService orchestrates the keyword matcher and staff scorer to
// route messages, and owns the message/assignment lifecycle transitions.
type AssignmentService struct {
	messages    repository.MessageRepository
	keywords    repository.KeywordRepository
	departments repository.DepartmentRepository
	staff       repository.StaffRepository
	assignments repository.AssignmentRepository
	scorer      *StaffScorer
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	MessageRepo    repository.MessageRepository
	KeywordRepo    repository.KeywordRepository
	DepartmentRepo repository.DepartmentRepository
	StaffRepo      repository.StaffRepository
	AssignmentRepo repository.AssignmentRepository
	Scorer         *StaffScorer
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		messages:    deps.MessageRepo,
		keywords:    deps.KeywordRepo,
		departments: deps.DepartmentRepo,
		staff:       deps.StaffRepo,
		assignments: deps.AssignmentRepo,
		scorer:      deps.Scorer,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the service clock.
func (s *AssignmentService) WithClock(now func() time.Time) *AssignmentService {
	s.now = now
	return s
}

// AssignMessage runs one end-to-end routing attempt for a pending message:
// match keywords, derive owning departments, build the candidate pool,
// score it, and commit the winning decision atomically. Retrying on a
// still-pending message is safe; a concurrent duplicate attempt surfaces
// as a CONFLICT for exactly one of the callers.
func (s *AssignmentService) AssignMessage(ctx context.Context, messageID string) (*RoutingResult, error) {
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("message", map[string]any{"message_id": messageID})
		}
		return nil, apperrors.MapError(err)
	}
	if message.Direction != domain.DirectionIncoming {
		return nil, apperrors.NewValidationError("only incoming messages are routed", map[string]any{"message_id": messageID})
	}
	if message.Status != domain.MessageStatusPending {
		return nil, apperrors.NewConflict("message already assigned", map[string]any{
			"message_id": messageID,
			"status":     string(message.Status),
		})
	}

	active, err := s.keywords.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	matched := MatchKeywords(message.Content, active)
	if len(matched) == 0 {
		s.recordOutcome(OutcomeNoKeywordMatch)
		s.publishUnassigned(ctx, message.ID, domain.ReasonNoKeywordMatch, nil)
		s.logger.Info("no keywords matched, message left pending",
			zap.String("message_id", message.ID))
		return &RoutingResult{Outcome: OutcomeNoKeywordMatch}, nil
	}

	departmentIDs, err := s.activeDepartments(ctx, message.ID, matched)
	if err != nil {
		return nil, err
	}

	pool, err := s.staff.ListAssignable(ctx, departmentIDs)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(pool) == 0 {
		s.recordOutcome(OutcomeNoEligibleStaff)
		s.publishUnassigned(ctx, message.ID, domain.ReasonNoEligibleStaff, matched)
		s.logger.Info("keywords matched but no eligible staff",
			zap.String("message_id", message.ID),
			zap.Int("matched_keywords", len(matched)))
		return &RoutingResult{Outcome: OutcomeNoEligibleStaff, MatchedKeywords: matched}, nil
	}

	winner, score, err := s.scorer.Best(ctx, pool, matched)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	periodStart, periodEnd := domain.PeriodBounds(now)
	assignment := &domain.Assignment{
		MessageID:  message.ID,
		AssignedTo: winner.ID,
		MatchScore: score,
		Notes:      assignmentNotes(matched),
	}
	err = s.assignments.CreateAssigned(ctx, assignment, repository.WorkloadIncrement{
		StaffID:     winner.ID,
		MetricName:  domain.MetricMessagesHandled,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the pending->assigned race to a concurrent attempt.
			return nil, apperrors.NewConflict("message already assigned", map[string]any{"message_id": message.ID})
		}
		return nil, apperrors.MapError(err)
	}

	s.recordOutcome(OutcomeAssigned)
	s.publish(ctx, events.Event{
		Type:      events.EventMessageAssigned,
		MessageID: message.ID,
		Actor:     events.Actor{System: true},
		Payload: events.MessageAssignedPayload{
			AssignmentID:    assignment.ID,
			AssigneeStaffID: winner.ID,
			MatchScore:      score,
			MatchedKeywords: keywordTokens(matched),
			Preview:         preview(message.Content, 50),
		},
	})
	s.logger.Info("message assigned",
		zap.String("message_id", message.ID),
		zap.String("assigned_to", winner.ID),
		zap.Float64("match_score", score),
		zap.Int("pool_size", len(pool)))

	return &RoutingResult{
		Outcome:         OutcomeAssigned,
		Assignment:      assignment,
		MatchedKeywords: matched,
	}, nil
}

// StartMessage moves an assigned message to IN_PROGRESS on behalf of its
// assignee (or a manager/admin).
func (s *AssignmentService) StartMessage(ctx context.Context, messageID string, actor *domain.StaffMember) error {
	if _, err := s.requireActorOnAssignment(ctx, messageID, actor); err != nil {
		return err
	}
	if err := s.messages.MarkInProgress(ctx, messageID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewConflict("message is not in assigned state", map[string]any{"message_id": messageID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// CompleteMessage stamps the assignment's completion and closes the
// message. Repeat attempts are rejected as conflicts; completed_at never
// changes after the first success.
func (s *AssignmentService) CompleteMessage(ctx context.Context, messageID string, actor *domain.StaffMember) (*domain.Assignment, error) {
	assignment, err := s.requireActorOnAssignment(ctx, messageID, actor)
	if err != nil {
		return nil, err
	}
	if assignment.CompletedAt != nil {
		return nil, apperrors.NewConflict("message already completed", map[string]any{
			"message_id":   messageID,
			"completed_at": assignment.CompletedAt,
		})
	}

	completedAt := s.now()
	if err := s.assignments.Complete(ctx, assignment.ID, completedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("message already completed", map[string]any{"message_id": messageID})
		}
		return nil, apperrors.MapError(err)
	}
	assignment.CompletedAt = &completedAt

	s.publish(ctx, events.Event{
		Type:      events.EventMessageCompleted,
		MessageID: messageID,
		Actor:     events.Actor{StaffID: &actor.ID},
		Payload: events.MessageCompletedPayload{
			AssignmentID: assignment.ID,
			CompletedAt:  completedAt,
		},
	})
	s.logger.Info("message completed",
		zap.String("message_id", messageID),
		zap.String("actor", actor.ID))
	return assignment, nil
}

// GetAssignment returns the active assignment for a message.
func (s *AssignmentService) GetAssignment(ctx context.Context, messageID string) (*domain.Assignment, error) {
	assignment, err := s.assignments.GetByMessageID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("assignment", map[string]any{"message_id": messageID})
		}
		return nil, apperrors.MapError(err)
	}
	return assignment, nil
}

// ListAssignments returns recent assignments for one staff member.
func (s *AssignmentService) ListAssignments(ctx context.Context, staffID string, limit, offset int) ([]domain.Assignment, error) {
	result, err := s.assignments.ListByAssignee(ctx, staffID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// activeDepartments resolves matched keywords to active owning departments
// and flags referential gaps: a keyword pointing at a department the store
// no longer has is a data integrity violation, fatal for this message and
// not worth an automatic retry.
func (s *AssignmentService) activeDepartments(ctx context.Context, messageID string, matched []domain.Keyword) ([]string, error) {
	wanted := MatchedDepartments(matched)
	departments, err := s.departments.ListByIDs(ctx, wanted)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(departments) != len(wanted) {
		s.logger.Error("matched keyword references missing department",
			zap.String("message_id", messageID),
			zap.Int("wanted", len(wanted)),
			zap.Int("found", len(departments)))
		return nil, apperrors.NewIntegrityViolation("keyword references missing department", map[string]any{
			"message_id": messageID,
		})
	}
	var ids []string
	for _, dept := range departments {
		if dept.IsActive {
			ids = append(ids, dept.ID)
		}
	}
	return ids, nil
}

func (s *AssignmentService) requireActorOnAssignment(ctx context.Context, messageID string, actor *domain.StaffMember) (*domain.Assignment, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("staff actor required")
	}
	assignment, err := s.assignments.GetByMessageID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("assignment", map[string]any{"message_id": messageID})
		}
		return nil, apperrors.MapError(err)
	}
	switch actor.Role {
	case domain.StaffRoleAdmin, domain.StaffRoleManager:
		return assignment, nil
	case domain.StaffRoleStaff:
		if assignment.AssignedTo == actor.ID {
			return assignment, nil
		}
		return nil, apperrors.NewForbidden("message assigned to another staff member")
	}
	return nil, apperrors.NewForbidden("unknown staff role")
}

func (s *AssignmentService) publishUnassigned(ctx context.Context, messageID string, reason domain.UnassignedReason, matched []domain.Keyword) {
	s.publish(ctx, events.Event{
		Type:      events.EventMessageUnassigned,
		MessageID: messageID,
		Actor:     events.Actor{System: true},
		Payload: events.MessageUnassignedPayload{
			Reason:          reason,
			MatchedKeywords: keywordTokens(matched),
		},
	})
}

func (s *AssignmentService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *AssignmentService) recordOutcome(outcome RoutingOutcome) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordRoutingOutcome(strings.ToLower(string(outcome)))
}

func assignmentNotes(matched []domain.Keyword) string {
	return fmt.Sprintf("auto-assigned on keywords: %s", strings.Join(keywordTokens(matched), ", "))
}

func keywordTokens(matched []domain.Keyword) []string {
	tokens := make([]string, 0, len(matched))
	for _, kw := range matched {
		tokens = append(tokens, kw.Keyword)
	}
	return tokens
}

func preview(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
