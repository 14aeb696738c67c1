package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/message-router/internal/domain"
	"github.com/spec-kit/message-router/internal/events"
	"github.com/spec-kit/message-router/internal/repository"
	apperrors "github.com/spec-kit/message-router/pkg/util"
)

const dedupKeyPrefix = "inbound:dedup:"

// InboundMessage is the normalized tuple the platform adapters hand over.
// Payload parsing and signature verification happen upstream.
type InboundMessage struct {
	Platform    string
	PlatformRef string
	SenderName  string
	ExternalID  *string
	Text        string
	ArrivedAt   time.Time
}

// IntakeService persists inbound events and triggers routing: dedup by
// platform external id, find-or-create the customer, insert the message
// row, then run one assignment attempt.
type IntakeService struct {
	customers  repository.CustomerRepository
	messages   repository.MessageRepository
	assigner   *AssignmentService
	redis      *redis.Client
	dedupTTL   time.Duration
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// IntakeDependencies bundles collaborators.
type IntakeDependencies struct {
	CustomerRepo repository.CustomerRepository
	MessageRepo  repository.MessageRepository
	Assigner     *AssignmentService
	Redis        *redis.Client
	DedupTTL     time.Duration
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewIntakeService creates the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntakeService{
		customers:  deps.CustomerRepo,
		messages:   deps.MessageRepo,
		assigner:   deps.Assigner,
		redis:      deps.Redis,
		dedupTTL:   deps.DedupTTL,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Receive processes one normalized inbound event. The message row is
// durable before routing starts; when the routing attempt itself fails the
// message stays PENDING and the error propagates with the persisted id so
// the caller can retry without re-sending.
func (s *IntakeService) Receive(ctx context.Context, in InboundMessage) (*domain.Message, *RoutingResult, error) {
	if strings.TrimSpace(in.Platform) == "" {
		return nil, nil, apperrors.NewValidationError("platform is required", nil)
	}
	if strings.TrimSpace(in.PlatformRef) == "" {
		return nil, nil, apperrors.NewValidationError("platform_ref is required", nil)
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, nil, apperrors.NewValidationError("text is required", nil)
	}

	if err := s.checkDuplicate(ctx, in); err != nil {
		return nil, nil, err
	}

	customer, err := s.findOrCreateCustomer(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	message := &domain.Message{
		CustomerID: customer.ID,
		Content:    in.Text,
		Platform:   in.Platform,
		ExternalID: in.ExternalID,
		Direction:  domain.DirectionIncoming,
		Status:     domain.MessageStatusPending,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventMessageReceived,
			MessageID: message.ID,
			Actor:     events.Actor{System: true},
			Timestamp: time.Now(),
			Payload: events.MessageReceivedPayload{
				CustomerID: customer.ID,
				Platform:   in.Platform,
				Preview:    preview(in.Text, 50),
			},
		})
	}

	result, err := s.assigner.AssignMessage(ctx, message.ID)
	if err != nil {
		s.logger.Error("routing attempt failed, message left pending",
			zap.String("message_id", message.ID),
			zap.Error(err))
		return message, nil, err
	}
	return message, result, nil
}

// checkDuplicate drops repeats of the same platform message. Redis being
// unreachable degrades to no dedup rather than blocking intake; the
// partial unique index on messages backstops it.
func (s *IntakeService) checkDuplicate(ctx context.Context, in InboundMessage) error {
	if s.redis == nil || in.ExternalID == nil || *in.ExternalID == "" {
		return nil
	}
	key := dedupKeyPrefix + in.Platform + ":" + *in.ExternalID
	ok, err := s.redis.SetNX(ctx, key, 1, s.dedupTTL).Result()
	if err != nil {
		s.logger.Warn("dedup check unavailable", zap.Error(err))
		return nil
	}
	if !ok {
		return apperrors.NewConflict("duplicate inbound message", map[string]any{
			"platform":    in.Platform,
			"external_id": *in.ExternalID,
		})
	}
	return nil
}

func (s *IntakeService) findOrCreateCustomer(ctx context.Context, in InboundMessage) (*domain.Customer, error) {
	customer, err := s.customers.GetByPlatformRef(ctx, in.Platform, in.PlatformRef)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	name := strings.TrimSpace(in.SenderName)
	if name == "" {
		name = fmt.Sprintf("%s customer %s", in.Platform, in.PlatformRef)
	}
	created := &domain.Customer{
		Name:        name,
		Platform:    in.Platform,
		PlatformRef: in.PlatformRef,
	}
	if err := s.customers.Create(ctx, created); err != nil {
		// Concurrent intake for the same sender can win the insert race.
		if apperrors.IsCode(apperrors.MapError(err), "CONFLICT") {
			return s.fetchExisting(ctx, in)
		}
		return nil, apperrors.MapError(err)
	}
	return created, nil
}

func (s *IntakeService) fetchExisting(ctx context.Context, in InboundMessage) (*domain.Customer, error) {
	customer, err := s.customers.GetByPlatformRef(ctx, in.Platform, in.PlatformRef)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return customer, nil
}
