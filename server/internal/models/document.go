package models

import (
	"encoding/json"
	"time"
)

// Document is one key-addressed JSON value of the persistence store.
type Document struct {
	Key       string          `gorm:"primaryKey;size:255"`
	Value     json.RawMessage `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
