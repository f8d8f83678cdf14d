// Package store contains GORM-backed SQLite models used by the validator spawner.
//
// Database Structure (database file: spawner.db):
//
//	databases/
//	└── spawner.db
//	    ├── key_values
//	    └── spawn_attempts
package store

import (
	"time"

	"gorm.io/gorm"
)

// KeyValue is one entry of the durable key-value store. The orchestrator keeps
// exactly one row, keyed "currentRequest", holding the JSON progress record.
type KeyValue struct {
	Key       string    `gorm:"primaryKey"` // Store key
	Value     string    `gorm:"type:text"`  // Opaque string value (JSON for the progress record)
	UpdatedAt time.Time // Last write
}

// SpawnAttempt is an append-only history row written whenever a progress record
// is cleared, whatever the reason.
type SpawnAttempt struct {
	gorm.Model
	RequestID  string `gorm:"index;not null"` // Provisioning request id of the cleared record
	LastState  string // State the record was in when cleared
	Outcome    string `gorm:"index"`     // "completed", "discarded" or "reset"
	Reason     string `gorm:"type:text"` // Human readable annotation
	ErrorCount int    // Counted errors at the time of clearing
	Metadata   string `gorm:"type:text"` // JSON metadata snapshot (tx hashes, pubkey)
}

// Attempt outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeDiscarded = "discarded"
	OutcomeReset     = "reset"
)
