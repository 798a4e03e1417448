package amqp

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// RefreshMessage announces that an instance refreshed a source. Receivers
// drop their cached copy; the message carries no data.
type RefreshMessage struct {
	Source    string    `json:"source"`
	Origin    string    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRefreshMessage creates a message for source sent by origin.
func NewRefreshMessage(source, origin string) *RefreshMessage {
	return &RefreshMessage{
		Source:    source,
		Origin:    origin,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshMessageFromJSON decodes and validates a message.
func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.Source) == "" {
		return nil, errors.New("refresh message without source")
	}
	return &msg, nil
}
