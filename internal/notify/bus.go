// Package notify broadcasts document-restored signals to in-process
// subscribers.
package notify

import (
	"sync"

	"folio/internal/folio"
	"folio/internal/model"
)

// DefaultBuffer is the channel capacity given to each subscriber.
const DefaultBuffer = 16

// Bus fans out restore notifications. Publishing never blocks: a subscriber
// whose buffer is full misses the signal, which is counted as dropped.
// Bus is safe for concurrent use.
type Bus struct {
	mu      sync.Mutex
	nextID  int
	subs    map[int]chan model.DocumentID
	buffer  int
	dropped int
	logger  folio.Logger
}

var _ folio.Notifier = (*Bus)(nil)

// NewBus creates a Bus whose subscribers get buffer-sized channels.
func NewBus(buffer int, logger folio.Logger) *Bus {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = folio.NewNopLogger()
	}
	return &Bus{subs: make(map[int]chan model.DocumentID), buffer: buffer, logger: logger}
}

// Subscribe registers a new subscriber. The returned cancel func removes the
// subscription and closes the channel; it may be called more than once.
func (b *Bus) Subscribe() (<-chan model.DocumentID, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan model.DocumentID, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// DocumentRestored publishes id to every subscriber.
func (b *Bus) DocumentRestored(id model.DocumentID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- id:
		default:
			b.dropped++
			b.logger.Debug("restore notification dropped", "document", id)
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *Bus) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Subscribers returns the number of active subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
