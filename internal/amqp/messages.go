package amqp

import (
	"encoding/json"
	"time"
)

// LedgerChangedMessage announces that one collection was modified. It
// carries no data; consumers re-read the stores.
type LedgerChangedMessage struct {
	Collection string    `json:"collection"`
	Operation  string    `json:"operation"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(collection, operation string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Collection: collection,
		Operation:  operation,
		Timestamp:  time.Now().UTC(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
