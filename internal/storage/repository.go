package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no export is recorded for a trip.
var ErrNotFound = errors.New("export record not found")

// SQLiteRepository stores what the export worker has written for each trip.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("Opened export store", "component", "storage", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RecordExport stores or replaces the export record of a trip.
func (r *SQLiteRepository) RecordExport(ctx context.Context, rec TripExport) error {
	if rec.ExportedAt.IsZero() {
		rec.ExportedAt = r.now()
	}
	err := r.queries.UpsertTripExport(ctx, UpsertTripExportParams{
		TripID:              rec.TripID,
		TripName:            rec.TripName,
		SheetRef:            rec.SheetRef,
		ActivityCount:       rec.ActivityCount,
		TotalEstimatedCents: rec.TotalEstimatedCents,
		LastEventAt:         rec.LastEventAt.UTC(),
		ExportedAt:          rec.ExportedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("record export for trip %d: %w", rec.TripID, err)
	}

	slog.InfoContext(ctx, "Export recorded",
		"component", "storage",
		"trip_id", rec.TripID,
		"sheet_ref", rec.SheetRef,
		"activity_count", rec.ActivityCount)
	return nil
}

// GetExport returns the export record of a trip, or ErrNotFound.
func (r *SQLiteRepository) GetExport(ctx context.Context, tripID int64) (TripExport, error) {
	rec, err := r.queries.GetTripExport(ctx, tripID)
	if errors.Is(err, sql.ErrNoRows) {
		return TripExport{}, ErrNotFound
	}
	if err != nil {
		return TripExport{}, fmt.Errorf("get export for trip %d: %w", tripID, err)
	}
	return rec, nil
}

// ListExports returns the most recent exports first.
func (r *SQLiteRepository) ListExports(ctx context.Context, limit int) ([]TripExport, error) {
	if limit <= 0 {
		limit = 50
	}
	recs, err := r.queries.ListTripExports(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	return recs, nil
}

// DeleteExport removes the record of a trip. Missing records are not an error.
func (r *SQLiteRepository) DeleteExport(ctx context.Context, tripID int64) error {
	n, err := r.queries.DeleteTripExport(ctx, tripID)
	if err != nil {
		return fmt.Errorf("delete export for trip %d: %w", tripID, err)
	}
	slog.InfoContext(ctx, "Export record deleted", "component", "storage", "trip_id", tripID, "rows", n)
	return nil
}

// MarkProcessed remembers a handled message. It reports false when the
// message had already been recorded.
func (r *SQLiteRepository) MarkProcessed(ctx context.Context, messageID string, tripID int64, action string) (bool, error) {
	n, err := r.queries.InsertProcessedMessage(ctx, InsertProcessedMessageParams{
		MessageID:   messageID,
		TripID:      tripID,
		Action:      action,
		ProcessedAt: r.now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("mark message %s processed: %w", messageID, err)
	}
	return n > 0, nil
}

// Processed reports whether messageID was handled before.
func (r *SQLiteRepository) Processed(ctx context.Context, messageID string) (bool, error) {
	n, err := r.queries.CountProcessedMessage(ctx, messageID)
	if err != nil {
		return false, fmt.Errorf("check message %s: %w", messageID, err)
	}
	return n > 0, nil
}

// PruneProcessed forgets handled messages older than maxAge.
func (r *SQLiteRepository) PruneProcessed(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := r.queries.PruneProcessedMessages(ctx, r.now().Add(-maxAge).UTC())
	if err != nil {
		return 0, fmt.Errorf("prune processed messages: %w", err)
	}
	return n, nil
}
