package ledger

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/thanhnp/pow-ledger/internal/blockchain"
	"github.com/thanhnp/pow-ledger/internal/models"
)

// statsHistory bounds the number of mining events kept for statistics
const statsHistory = 1024

// statsRecorder keeps a ring of recent attempt counts and durations
type statsRecorder struct {
	mu       sync.Mutex
	attempts []float64
	elapsed  []float64
	next     int
	full     bool
}

func newStatsRecorder(size int) *statsRecorder {
	return &statsRecorder{
		attempts: make([]float64, size),
		elapsed:  make([]float64, size),
	}
}

func (r *statsRecorder) record(e blockchain.MiningEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempts[r.next] = float64(e.Attempts)
	r.elapsed[r.next] = float64(e.Elapsed) / float64(time.Millisecond)
	r.next++
	if r.next == len(r.attempts) {
		r.next = 0
		r.full = true
	}
}

func (r *statsRecorder) summary() models.MiningStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.next
	if r.full {
		n = len(r.attempts)
	}
	if n == 0 {
		return models.MiningStats{}
	}

	out := models.MiningStats{
		Count:         n,
		MaxAttempts:   uint64(floats.Max(r.attempts[:n])),
		MeanElapsedMS: stat.Mean(r.elapsed[:n], nil),
	}
	if n == 1 {
		out.MeanAttempts = r.attempts[0]
		return out
	}
	out.MeanAttempts, out.StdDevAttempts = stat.MeanStdDev(r.attempts[:n], nil)
	return out
}
