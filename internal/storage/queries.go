package storage

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const upsertTripExport = `
INSERT INTO trip_exports (trip_id, trip_name, sheet_ref, activity_count, total_estimated_cents, last_event_at, exported_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(trip_id) DO UPDATE SET
    trip_name = excluded.trip_name,
    sheet_ref = excluded.sheet_ref,
    activity_count = excluded.activity_count,
    total_estimated_cents = excluded.total_estimated_cents,
    last_event_at = excluded.last_event_at,
    exported_at = excluded.exported_at
`

type UpsertTripExportParams struct {
	TripID              int64
	TripName            string
	SheetRef            string
	ActivityCount       int64
	TotalEstimatedCents int64
	LastEventAt         time.Time
	ExportedAt          time.Time
}

func (q *Queries) UpsertTripExport(ctx context.Context, arg UpsertTripExportParams) error {
	_, err := q.db.ExecContext(ctx, upsertTripExport,
		arg.TripID,
		arg.TripName,
		arg.SheetRef,
		arg.ActivityCount,
		arg.TotalEstimatedCents,
		arg.LastEventAt,
		arg.ExportedAt,
	)
	return err
}

const getTripExport = `
SELECT trip_id, trip_name, sheet_ref, activity_count, total_estimated_cents, last_event_at, exported_at
FROM trip_exports
WHERE trip_id = ?
`

func (q *Queries) GetTripExport(ctx context.Context, tripID int64) (TripExport, error) {
	row := q.db.QueryRowContext(ctx, getTripExport, tripID)
	var i TripExport
	err := row.Scan(
		&i.TripID,
		&i.TripName,
		&i.SheetRef,
		&i.ActivityCount,
		&i.TotalEstimatedCents,
		&i.LastEventAt,
		&i.ExportedAt,
	)
	return i, err
}

const listTripExports = `
SELECT trip_id, trip_name, sheet_ref, activity_count, total_estimated_cents, last_event_at, exported_at
FROM trip_exports
ORDER BY exported_at DESC, trip_id DESC
LIMIT ?
`

func (q *Queries) ListTripExports(ctx context.Context, limit int64) ([]TripExport, error) {
	rows, err := q.db.QueryContext(ctx, listTripExports, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TripExport
	for rows.Next() {
		var i TripExport
		if err := rows.Scan(
			&i.TripID,
			&i.TripName,
			&i.SheetRef,
			&i.ActivityCount,
			&i.TotalEstimatedCents,
			&i.LastEventAt,
			&i.ExportedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteTripExport = `
DELETE FROM trip_exports WHERE trip_id = ?
`

func (q *Queries) DeleteTripExport(ctx context.Context, tripID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTripExport, tripID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const insertProcessedMessage = `
INSERT OR IGNORE INTO processed_messages (message_id, trip_id, action, processed_at)
VALUES (?, ?, ?, ?)
`

type InsertProcessedMessageParams struct {
	MessageID   string
	TripID      int64
	Action      string
	ProcessedAt time.Time
}

func (q *Queries) InsertProcessedMessage(ctx context.Context, arg InsertProcessedMessageParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertProcessedMessage,
		arg.MessageID,
		arg.TripID,
		arg.Action,
		arg.ProcessedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countProcessedMessage = `
SELECT COUNT(*) FROM processed_messages WHERE message_id = ?
`

func (q *Queries) CountProcessedMessage(ctx context.Context, messageID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countProcessedMessage, messageID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const pruneProcessedMessages = `
DELETE FROM processed_messages WHERE processed_at < ?
`

func (q *Queries) PruneProcessedMessages(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, pruneProcessedMessages, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
