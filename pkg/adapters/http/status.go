package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/nvencoder/pkg/domain"
)

// Snapshot is the state served by GET /status.
type Snapshot struct {
	BatchID   string              `json:"batch_id,omitempty"`
	Running   bool                `json:"running"`
	Index     int                 `json:"index,omitempty"`
	Total     int                 `json:"total,omitempty"`
	File      string              `json:"file,omitempty"`
	Progress  *domain.Progress    `json:"progress,omitempty"`
	Results   []domain.FileResult `json:"results"`
	Canceled  bool                `json:"canceled,omitempty"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Status follows worker events and fans them out to SSE subscribers.
type Status struct {
	mu      sync.RWMutex
	snap    Snapshot
	streams *StreamManager
}

// NewStatus creates an idle tracker.
func NewStatus() *Status {
	return &Status{
		snap:    Snapshot{Results: []domain.FileResult{}, UpdatedAt: time.Now()},
		streams: NewStreamManager(),
	}
}

// Streams returns the manager events are broadcast on.
func (s *Status) Streams() *StreamManager { return s.streams }

// Snapshot returns a copy of the current state.
func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snap
	snap.Results = append([]domain.FileResult{}, s.snap.Results...)
	if s.snap.Progress != nil {
		p := *s.snap.Progress
		snap.Progress = &p
	}
	return snap
}

// Hooks updates the snapshot and broadcasts every event as JSON.
func (s *Status) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFileStart: func(_ context.Context, e *domain.FileEvent) {
			s.update(func(snap *Snapshot) {
				if snap.BatchID != e.BatchID {
					snap.Results = []domain.FileResult{}
					snap.Canceled = false
				}
				snap.BatchID = e.BatchID
				snap.Running = true
				snap.Index, snap.Total = e.Index, e.Total
				snap.File = e.Input
				snap.Progress = nil
			})
			s.broadcast(e.BatchID, e)
		},
		OnProgress: func(_ context.Context, e *domain.FileEvent) {
			s.update(func(snap *Snapshot) {
				if e.Progress != nil {
					p := *e.Progress
					snap.Progress = &p
				}
			})
			s.broadcast(e.BatchID, e)
		},
		OnFileFinish: func(_ context.Context, e *domain.FileEvent) {
			s.update(func(snap *Snapshot) {
				if e.Result != nil {
					snap.Results = append(snap.Results, *e.Result)
				}
			})
			s.broadcast(e.BatchID, e)
		},
		OnBatchFinish: func(_ context.Context, e *domain.BatchEvent) {
			s.update(func(snap *Snapshot) {
				snap.Running = false
				snap.File = ""
				snap.Progress = nil
				snap.Canceled = e.Canceled
			})
			s.broadcast(e.BatchID, e)
		},
	}
}

func (s *Status) update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snap)
	s.snap.UpdatedAt = time.Now()
}

func (s *Status) broadcast(batchID string, event any) {
	b, err := json.Marshal(event)
	if err != nil {
		slog.Warn("Status: event encode failed", "err", err)
		return
	}
	s.streams.Broadcast(batchID, string(b))
}
