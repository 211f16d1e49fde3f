package feed

import (
	"encoding/json"
	"errors"
	"time"
)

// ChangeMessage is the AMQP payload announcing that an owner's documents changed.
type ChangeMessage struct {
	OwnerID    string    `json:"ownerID"`
	OriginID   string    `json:"originID"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewChangeMessage(ownerID, originID string) *ChangeMessage {
	return &ChangeMessage{
		OwnerID:    ownerID,
		OriginID:   originID,
		OccurredAt: time.Now().UTC(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.OwnerID == "" {
		return nil, errors.New("change message without ownerID")
	}
	return &msg, nil
}
