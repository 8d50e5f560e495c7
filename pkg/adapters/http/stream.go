package http

import (
	"log/slog"
	"sync"
)

// AllBatches subscribes to the events of every batch.
const AllBatches = ""

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // batch ID -> set of channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a buffered channel for batchID, or for every batch
// with AllBatches. The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(batchID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 32)
	if _, ok := sm.subscribers[batchID]; !ok {
		sm.subscribers[batchID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[batchID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[batchID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, batchID)
				}
			}
		})
	}
}

// Count returns the number of subscribers across all batches.
func (sm *StreamManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	n := 0
	for _, subs := range sm.subscribers {
		n += len(subs)
	}
	return n
}

// Broadcast delivers msg to the batch's subscribers and to AllBatches ones.
// Slow clients drop messages instead of blocking the worker.
func (sm *StreamManager) Broadcast(batchID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	targets := []string{batchID}
	if batchID != AllBatches {
		targets = append(targets, AllBatches)
	}
	for _, key := range targets {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				slog.Warn("SSE: Client buffer full, dropping message", "batch", batchID)
			}
		}
	}
}
