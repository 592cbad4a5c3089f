package amqp

import (
	"encoding/json"
	"time"
)

// UsageSyncMessage signals that a card's usage changed and its snapshot
// rows should be re-exported. The worker rebuilds the snapshots itself, so
// the message carries only the card and viewing year.
type UsageSyncMessage struct {
	CardID    string    `json:"card_id"`
	Year      int       `json:"year"`
	Timestamp time.Time `json:"timestamp"`
}

func NewUsageSyncMessage(cardID string, year int) *UsageSyncMessage {
	return &UsageSyncMessage{
		CardID:    cardID,
		Year:      year,
		Timestamp: time.Now(),
	}
}

func (m *UsageSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func UsageSyncMessageFromJSON(data []byte) (*UsageSyncMessage, error) {
	var msg UsageSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
