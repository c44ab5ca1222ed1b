package models

import (
	"time"
)

// MiningEvent represents a completed proof-of-work search
type MiningEvent struct {
	Index     int       `json:"index"`
	Nonce     uint64    `json:"nonce"`
	Hash      string    `json:"hash"`
	ElapsedMS float64   `json:"elapsed_ms"`
	Attempts  uint64    `json:"attempts"`
	MinedAt   time.Time `json:"mined_at"`
}

// MiningStats summarises recent mining events
type MiningStats struct {
	Count          int     `json:"count"`
	MeanAttempts   float64 `json:"mean_attempts"`
	StdDevAttempts float64 `json:"stddev_attempts"`
	MaxAttempts    uint64  `json:"max_attempts"`
	MeanElapsedMS  float64 `json:"mean_elapsed_ms"`
	Dropped        uint64  `json:"dropped_events"`
}
