package amqp

import (
	"encoding/json"
	"time"
)

// SnapshotSyncMessage announces that a new local snapshot version exists.
// The worker reads the table itself; the message carries only the version.
type SnapshotSyncMessage struct {
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSnapshotSyncMessage(version int64) *SnapshotSyncMessage {
	return &SnapshotSyncMessage{
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *SnapshotSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SnapshotSyncMessageFromJSON(data []byte) (*SnapshotSyncMessage, error) {
	var msg SnapshotSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
