package api

import (
	"time"

	"github.com/pushchain/validator-spawner/spawner/progress"
	"github.com/pushchain/validator-spawner/spawner/store"
)

// QueryResponse represents the standard query response format
type QueryResponse struct {
	Data      interface{} `json:"data"`
	QueriedAt time.Time   `json:"queried_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// CurrentSpawn is the view of the in-flight record.
type CurrentSpawn struct {
	RequestID  string            `json:"request_id"`
	State      string            `json:"state"`
	ErrorCount int               `json:"error_count"`
	Metadata   progress.Metadata `json:"metadata"`
}

// Attempt is the view of one finished spawn attempt.
type Attempt struct {
	RequestID  string    `json:"request_id"`
	LastState  string    `json:"last_state"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	ErrorCount int       `json:"error_count"`
	FinishedAt time.Time `json:"finished_at"`
}

func newCurrentSpawn(rec *progress.Record) CurrentSpawn {
	return CurrentSpawn{
		RequestID:  rec.RequestID,
		State:      rec.State.String(),
		ErrorCount: rec.ErrorCount,
		Metadata:   rec.Metadata,
	}
}

func newAttempts(rows []store.SpawnAttempt) []Attempt {
	out := make([]Attempt, 0, len(rows))
	for _, row := range rows {
		out = append(out, Attempt{
			RequestID:  row.RequestID,
			LastState:  row.LastState,
			Outcome:    row.Outcome,
			Reason:     row.Reason,
			ErrorCount: row.ErrorCount,
			FinishedAt: row.CreatedAt,
		})
	}
	return out
}
