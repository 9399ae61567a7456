package storage

import "time"

type TripExport struct {
	TripID              int64     `json:"trip_id"`
	TripName            string    `json:"trip_name"`
	SheetRef            string    `json:"sheet_ref"`
	ActivityCount       int64     `json:"activity_count"`
	TotalEstimatedCents int64     `json:"total_estimated_cents"`
	LastEventAt         time.Time `json:"last_event_at"`
	ExportedAt          time.Time `json:"exported_at"`
}

type ProcessedMessage struct {
	MessageID   string    `json:"message_id"`
	TripID      int64     `json:"trip_id"`
	Action      string    `json:"action"`
	ProcessedAt time.Time `json:"processed_at"`
}
