package amqp

import (
	"encoding/json"
	"time"
)

// ChangeEvent announces that the stored data moved to a new revision. It
// only carries counts; consumers read the data itself from storage.
type ChangeEvent struct {
	Revision     uint64    `json:"revision"`
	Kind         string    `json:"kind"`
	Transactions int       `json:"transactions"`
	Goals        int       `json:"goals"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewChangeEvent(revision uint64, kind string, transactions, goals int) *ChangeEvent {
	return &ChangeEvent{
		Revision:     revision,
		Kind:         kind,
		Transactions: transactions,
		Goals:        goals,
		Timestamp:    time.Now().UTC(),
	}
}

func (m *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var msg ChangeEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
