package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tripplanner/internal/amqp"
	"tripplanner/internal/core"
	"tripplanner/internal/sheets"
	"tripplanner/internal/storage"
	"tripplanner/internal/tripapi"
)

// TripFetcher loads the current trip aggregate.
type TripFetcher interface {
	GetTrip(ctx context.Context, id int64, token string) (core.Trip, error)
}

// ExportStore records what was exported and which messages were handled.
type ExportStore interface {
	GetExport(ctx context.Context, tripID int64) (storage.TripExport, error)
	ListExports(ctx context.Context, limit int) ([]storage.TripExport, error)
	RecordExport(ctx context.Context, rec storage.TripExport) error
	DeleteExport(ctx context.Context, tripID int64) error
	Processed(ctx context.Context, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, messageID string, tripID int64, action string) (bool, error)
}

// ExportWorker keeps one itinerary export per trip in step with trip changes.
type ExportWorker struct {
	trips  TripFetcher
	sheets sheets.ItineraryStore
	store  ExportStore
	token  string
	now    func() time.Time
}

func NewExportWorker(trips TripFetcher, itineraries sheets.ItineraryStore, store ExportStore, token string) *ExportWorker {
	return &ExportWorker{
		trips:  trips,
		sheets: itineraries,
		store:  store,
		token:  token,
		now:    time.Now,
	}
}

// HandleTripChanged processes one change message. Redelivered and stale
// messages are acknowledged without touching the export.
func (w *ExportWorker) HandleTripChanged(ctx context.Context, msg *amqp.TripChangedMessage) error {
	logger := slog.With("message_id", msg.MessageID, "trip_id", msg.TripID, "action", msg.Action)

	seen, err := w.store.Processed(ctx, msg.MessageID)
	if err != nil {
		return err
	}
	if seen {
		logger.DebugContext(ctx, "Skipping duplicate message")
		return nil
	}

	if msg.Action.Removes() {
		if err := w.remove(ctx, msg.TripID); err != nil {
			return err
		}
		return w.markProcessed(ctx, msg)
	}

	prev, err := w.store.GetExport(ctx, msg.TripID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return err
	case !msg.Timestamp.After(prev.LastEventAt):
		logger.InfoContext(ctx, "Skipping stale message", "last_event_at", prev.LastEventAt)
		return w.markProcessed(ctx, msg)
	}

	if err := w.export(ctx, msg.TripID, msg.Timestamp); err != nil {
		return err
	}
	return w.markProcessed(ctx, msg)
}

// Resync re-exports every recorded trip. It is run at startup to catch up
// on changes missed while the worker was down.
func (w *ExportWorker) Resync(ctx context.Context, limit int) error {
	recs, err := w.store.ListExports(ctx, limit)
	if err != nil {
		return fmt.Errorf("list exports for resync: %w", err)
	}
	if len(recs) == 0 {
		slog.InfoContext(ctx, "No exports to resync")
		return nil
	}

	var failed int
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.export(ctx, rec.TripID, rec.LastEventAt); err != nil {
			slog.ErrorContext(ctx, "Resync failed", "trip_id", rec.TripID, "error", err)
			failed++
		}
	}
	slog.InfoContext(ctx, "Resync completed", "total", len(recs), "errors", failed)
	return nil
}

func (w *ExportWorker) export(ctx context.Context, tripID int64, eventAt time.Time) error {
	trip, err := w.trips.GetTrip(ctx, tripID, w.token)
	if err != nil {
		if apiErr, ok := tripapi.AsError(err); ok && apiErr.NotFound() {
			slog.InfoContext(ctx, "Trip no longer visible, removing export", "trip_id", tripID)
			return w.remove(ctx, tripID)
		}
		return fmt.Errorf("fetch trip %d: %w", tripID, err)
	}

	ref, err := w.sheets.WriteItinerary(ctx, trip)
	if err != nil {
		return fmt.Errorf("write itinerary for trip %d: %w", tripID, err)
	}

	return w.store.RecordExport(ctx, storage.TripExport{
		TripID:              trip.ID,
		TripName:            trip.Name,
		SheetRef:            ref,
		ActivityCount:       int64(len(trip.Activities)),
		TotalEstimatedCents: trip.TotalEstimated().Cents,
		LastEventAt:         eventAt,
		ExportedAt:          w.now(),
	})
}

func (w *ExportWorker) remove(ctx context.Context, tripID int64) error {
	if err := w.sheets.DeleteItinerary(ctx, tripID); err != nil {
		return fmt.Errorf("delete itinerary for trip %d: %w", tripID, err)
	}
	return w.store.DeleteExport(ctx, tripID)
}

func (w *ExportWorker) markProcessed(ctx context.Context, msg *amqp.TripChangedMessage) error {
	if _, err := w.store.MarkProcessed(ctx, msg.MessageID, msg.TripID, string(msg.Action)); err != nil {
		// The export itself succeeded; a redelivery would only redo it.
		slog.WarnContext(ctx, "Failed to mark message processed", "message_id", msg.MessageID, "error", err)
	}
	return nil
}
