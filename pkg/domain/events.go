package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventFileStart   EventType = "file_start"
	EventProgress    EventType = "progress"
	EventFileFinish  EventType = "file_finish"
	EventBatchFinish EventType = "batch_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	BatchID   string    `json:"batch_id"`
}

// FileEvent reports on one file of a batch. Index is 1-based.
type FileEvent struct {
	EventBase
	Index    int         `json:"index"`
	Total    int         `json:"total"`
	Input    string      `json:"input"`
	Progress *Progress   `json:"progress,omitempty"`
	Result   *FileResult `json:"result,omitempty"`
}

// BatchEvent closes a batch.
type BatchEvent struct {
	EventBase
	Results  []FileResult  `json:"results"`
	Canceled bool          `json:"canceled"`
	Elapsed  time.Duration `json:"elapsed"`
}

// LifecycleHooks defines callbacks for batch observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnFileStart   func(context.Context, *FileEvent)
	OnProgress    func(context.Context, *FileEvent)
	OnFileFinish  func(context.Context, *FileEvent)
	OnBatchFinish func(context.Context, *BatchEvent)
}

// MergeHooks returns hooks that call every non-nil callback of hs in order.
func MergeHooks(hs ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, h := range hs {
		merged.OnFileStart = chain(merged.OnFileStart, h.OnFileStart)
		merged.OnProgress = chain(merged.OnProgress, h.OnProgress)
		merged.OnFileFinish = chain(merged.OnFileFinish, h.OnFileFinish)
		merged.OnBatchFinish = chain(merged.OnBatchFinish, h.OnBatchFinish)
	}
	return merged
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
