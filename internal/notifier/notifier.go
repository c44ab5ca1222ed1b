package notifier

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thanhnp/pow-ledger/internal/blockchain"
	"github.com/thanhnp/pow-ledger/internal/models"
)

// DefaultQueueSize is the capacity of the publish queue
const DefaultQueueSize = 1024

// MiningNotifier fans mining events out to subscribers. Publish never
// blocks: when the queue or a subscriber buffer is full the event is dropped
// and counted.
type MiningNotifier struct {
	anyQ    chan models.MiningEvent
	logger  *slog.Logger
	dropped atomic.Uint64

	mu      sync.RWMutex
	subs    map[int]chan models.MiningEvent
	nextID  int
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

var _ blockchain.EventSink = (*MiningNotifier)(nil)

// NewMiningNotifier creates a notifier with the given queue capacity
func NewMiningNotifier(queueSize int, logger *slog.Logger) *MiningNotifier {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MiningNotifier{
		anyQ:   make(chan models.MiningEvent, queueSize),
		logger: logger.With("component", "notifier"),
		subs:   make(map[int]chan models.MiningEvent),
	}
}

// Publish queues an event for dispatch (implements blockchain.EventSink)
func (n *MiningNotifier) Publish(e blockchain.MiningEvent) {
	select {
	case n.anyQ <- e.Model(time.Now().UTC()):
	default:
		n.dropped.Add(1)
	}
}

// Dropped returns the number of events that were not delivered
func (n *MiningNotifier) Dropped() uint64 {
	return n.dropped.Load()
}

// Start starts the dispatcher
func (n *MiningNotifier) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return nil
	}

	ctx, n.cancel = context.WithCancel(ctx)
	n.done = make(chan struct{})
	n.running = true

	go n.superQueue(ctx)
	return nil
}

// Stop stops the dispatcher and closes every subscription
func (n *MiningNotifier) Stop() error {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return nil
	}
	n.running = false
	n.cancel()
	done := n.done
	n.mu.Unlock()

	<-done

	n.mu.Lock()
	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
	n.mu.Unlock()
	return nil
}

// Subscribe returns a channel receiving every dispatched event and a
// function that ends the subscription
func (n *MiningNotifier) Subscribe(buffer int) (<-chan models.MiningEvent, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan models.MiningEvent, buffer)

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = ch
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if _, ok := n.subs[id]; ok {
				delete(n.subs, id)
				close(ch)
			}
		})
	}
}

// Subscribers returns the number of active subscriptions
func (n *MiningNotifier) Subscribers() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// superQueue dispatches queued events until ctx is done
func (n *MiningNotifier) superQueue(ctx context.Context) {
	defer close(n.done)
	n.logger.Info("dispatcher started")

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("dispatcher stopped", "dropped", n.Dropped())
			return
		case e := <-n.anyQ:
			n.logger.Info("block mined",
				"index", e.Index,
				"nonce", e.Nonce,
				"hash", e.Hash,
				"attempts", e.Attempts,
				"elapsed_ms", e.ElapsedMS)
			n.dispatch(e)
		}
	}
}

func (n *MiningNotifier) dispatch(e models.MiningEvent) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for id, ch := range n.subs {
		select {
		case ch <- e:
		default:
			n.dropped.Add(1)
			n.logger.Debug("subscriber lagging, event dropped", "subscriber", id, "index", e.Index)
		}
	}
}
