package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tripplanner/internal/core"
)

// TripChangedMessage announces that a trip was mutated. It carries no trip
// data; consumers fetch the current aggregate themselves.
type TripChangedMessage struct {
	MessageID string            `json:"message_id"`
	TripID    int64             `json:"trip_id"`
	Action    core.ChangeAction `json:"action"`
	Timestamp time.Time         `json:"timestamp"`
}

func NewTripChangedMessage(tripID int64, action core.ChangeAction) *TripChangedMessage {
	return &TripChangedMessage{
		MessageID: uuid.NewString(),
		TripID:    tripID,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

func (m *TripChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TripChangedMessageFromJSON decodes and validates a message body.
func TripChangedMessageFromJSON(data []byte) (*TripChangedMessage, error) {
	var msg TripChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.TripID <= 0 {
		return nil, fmt.Errorf("invalid trip id %d", msg.TripID)
	}
	if !msg.Action.Valid() {
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	if _, err := uuid.Parse(msg.MessageID); err != nil {
		return nil, fmt.Errorf("invalid message id: %w", err)
	}
	return &msg, nil
}
