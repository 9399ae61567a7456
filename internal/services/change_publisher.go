package services

import (
	"context"
	"fmt"
	"log/slog"

	"tripplanner/internal/amqp"
	"tripplanner/internal/core"
	"tripplanner/internal/view"
)

// Publisher sends trip change messages to the broker.
type Publisher interface {
	PublishTripChanged(ctx context.Context, msg *amqp.TripChangedMessage) error
	Close() error
}

// ChangePublisher turns view notifications into broker messages. A nil
// publisher makes it a no-op so the web app runs without a broker.
type ChangePublisher struct {
	publisher Publisher
}

var _ view.ChangeNotifier = (*ChangePublisher)(nil)

func NewChangePublisher(publisher Publisher) *ChangePublisher {
	return &ChangePublisher{publisher: publisher}
}

// TripChanged publishes one message per successful mutation.
func (p *ChangePublisher) TripChanged(ctx context.Context, tripID int64, action core.ChangeAction) error {
	if p.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping change message",
			"trip_id", tripID, "action", action)
		return nil
	}
	if !action.Valid() {
		return fmt.Errorf("unknown change action %q", action)
	}

	msg := amqp.NewTripChangedMessage(tripID, action)
	if err := p.publisher.PublishTripChanged(ctx, msg); err != nil {
		return fmt.Errorf("publish %s for trip %d: %w", action, tripID, err)
	}
	return nil
}

func (p *ChangePublisher) Close() error {
	if p.publisher == nil {
		return nil
	}
	if err := p.publisher.Close(); err != nil {
		return fmt.Errorf("close publisher: %w", err)
	}
	return nil
}
