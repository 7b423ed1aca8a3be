package http

import (
	"log/slog"
	"sync"

	"github.com/aretw0/arbor/internal/logging"
)

// Event is one server-sent event.
type Event struct {
	Name string
	Data string

	// Keys are the top-level state keys the event concerns, used for filtering.
	Keys []string
}

// StreamManager fans events out to active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- Event]struct{}
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan<- Event]struct{}),
		logger:      logging.OrNop(logger),
	}
}

// Subscribe registers a buffered channel. The returned func unregisters and closes it.
func (sm *StreamManager) Subscribe() (<-chan Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, 10)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Broadcast delivers ev to every subscriber without blocking.
func (sm *StreamManager) Broadcast(ev Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "event", ev.Name, "payload_size", len(ev.Data), "subscribers", len(sm.subscribers))

	for ch := range sm.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "event", ev.Name)
		}
	}
}

// Count returns the number of connected subscribers.
func (sm *StreamManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}
