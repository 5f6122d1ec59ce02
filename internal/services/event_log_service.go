package services

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ecommerce-copilot/api/internal/domain"
	"github.com/ecommerce-copilot/api/internal/repositories"
)

const (
	eventInteractionAppendFailed  = "event.append_failed"
	eventInteractionPublishFailed = "event.publish_failed"

	statusSuccess = "success"
	statusFailed  = "failed"
)

// EventLogServiceDeps bundles constructor inputs for the interaction event
// recorder.
type EventLogServiceDeps struct {
	Repository  repositories.EventRepository
	Publisher   EventPublisher
	Platform    string
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type eventLogService struct {
	repo      repositories.EventRepository
	publisher EventPublisher
	platform  string
	clock     func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

// NewEventLogService creates an interaction event recorder backed by the
// supplied repository, with an optional broker fan-out.
func NewEventLogService(deps EventLogServiceDeps) (EventRecorder, error) {
	if deps.Repository == nil {
		return nil, errors.New("event log service: repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	platform := deps.Platform
	if platform == "" {
		platform = "shopify"
	}

	return &eventLogService{
		repo:      deps.Repository,
		publisher: deps.Publisher,
		platform:  platform,
		clock:     func() time.Time { return clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

// Record appends the interaction event and, when a publisher is configured,
// fans it out to the broker. Sink failures are logged and swallowed so a
// broken event pipeline can never fail the support response.
func (s *eventLogService) Record(ctx context.Context, record EventRecord) {
	event := s.buildEvent(record)

	if err := s.repo.Append(ctx, event); err != nil {
		s.logger(ctx, eventInteractionAppendFailed, map[string]any{
			"event_type": string(event.EventType),
			"error":      err.Error(),
		})
	}

	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.PublishInteractionEvent(ctx, event); err != nil {
		s.logger(ctx, eventInteractionPublishFailed, map[string]any{
			"event_type": string(event.EventType),
			"error":      err.Error(),
		})
	}
}

func (s *eventLogService) buildEvent(record EventRecord) domain.InteractionEvent {
	status := statusFailed
	if record.Succeeded {
		status = statusSuccess
	}

	sentiment := record.Classification.Sentiment
	if sentiment == "" {
		sentiment = domain.SentimentNeutral
	}

	eventType := record.EventType
	if eventType == "" {
		eventType = domain.EventOther
	}

	return domain.InteractionEvent{
		ID:          s.newID(),
		VisitorID:   record.VisitorID,
		Email:       record.Email,
		EventType:   eventType,
		OrderNumber: record.OrderNumber,
		Status:      status,
		Platform:    s.platform,
		Metadata:    record.Metadata,
		Sentiment:   sentiment,
		AINotes:     record.Classification.Recommendation,
		CreatedAt:   s.clock(),
	}
}
