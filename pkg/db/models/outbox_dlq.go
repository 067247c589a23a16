package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxDLQ stores events that exhausted their delivery attempts.
type OutboxDLQ struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID      uuid.UUID       `gorm:"column:event_id;type:uuid;not null;uniqueIndex"`
	EventType    string          `gorm:"column:event_type;not null"`
	Payload      json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	AttemptCount int             `gorm:"column:attempt_count;not null"`
	LastError    string          `gorm:"column:last_error;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the short table name instead of gorm's pluralized default.
func (OutboxDLQ) TableName() string {
	return "outbox_dlq"
}
