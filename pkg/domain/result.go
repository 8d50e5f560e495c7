package domain

import "time"

// FileStatus is the terminal state of one file in a batch.
type FileStatus string

const (
	StatusEncoded  FileStatus = "encoded"
	StatusSkipped  FileStatus = "skipped"
	StatusFailed   FileStatus = "failed"
	StatusCanceled FileStatus = "canceled"
)

// FileResult records what happened to one input file.
type FileResult struct {
	ID         string        `json:"id"`
	BatchID    string        `json:"batch_id"`
	Input      string        `json:"input"`
	Output     string        `json:"output,omitempty"`
	Status     FileStatus    `json:"status"`
	Message    string        `json:"message,omitempty"`
	Decoder    string        `json:"decoder,omitempty"`
	Encoder    string        `json:"encoder,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Succeeded reports whether the file counts as done. Skipped files count,
// since their output already exists.
func (r FileResult) Succeeded() bool {
	return r.Status == StatusEncoded || r.Status == StatusSkipped
}
