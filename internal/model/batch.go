package model

import (
	"fmt"
	"time"
)

// Batch is the ordered set of downloads selected in one run
type Batch struct {
	ID        string          `json:"id"`
	SourceURL string          `json:"source_url"`
	Tasks     []*DownloadTask `json:"tasks"`
	CreatedAt time.Time       `json:"created_at"`
}

// BatchSummary aggregates task outcomes for display
type BatchSummary struct {
	Total     int
	Completed int
	Failed    int
	Skipped   int
	Bytes     int64
}

// String renders the summary as a single log line
func (s BatchSummary) String() string {
	return fmt.Sprintf("%d completed, %d failed, %d skipped (%d bytes)", s.Completed, s.Failed, s.Skipped, s.Bytes)
}

// NewBatch creates an empty batch for sourceURL
func NewBatch(id, sourceURL string) *Batch {
	return &Batch{
		ID:        id,
		SourceURL: sourceURL,
		Tasks:     make([]*DownloadTask, 0),
		CreatedAt: time.Now(),
	}
}

// AddTask appends a task to the batch
func (b *Batch) AddTask(task *DownloadTask) {
	b.Tasks = append(b.Tasks, task)
}

// Pending returns tasks that have not been attempted yet
func (b *Batch) Pending() []*DownloadTask {
	return b.filter(TaskStatusPending)
}

// Completed returns tasks whose file was written
func (b *Batch) Completed() []*DownloadTask {
	return b.filter(TaskStatusCompleted)
}

// Failed returns tasks that ended with an error
func (b *Batch) Failed() []*DownloadTask {
	return b.filter(TaskStatusError)
}

// Skipped returns tasks that were skipped
func (b *Batch) Skipped() []*DownloadTask {
	return b.filter(TaskStatusSkipped)
}

// HasErrors checks if any task has failed
func (b *Batch) HasErrors() bool {
	return len(b.Failed()) > 0
}

// Summary counts outcomes across all tasks
func (b *Batch) Summary() BatchSummary {
	s := BatchSummary{Total: len(b.Tasks)}
	for _, task := range b.Tasks {
		switch task.Status {
		case TaskStatusCompleted:
			s.Completed++
			s.Bytes += task.BytesWritten
		case TaskStatusError:
			s.Failed++
		case TaskStatusSkipped:
			s.Skipped++
		}
	}
	return s
}

func (b *Batch) filter(status TaskStatus) []*DownloadTask {
	var out []*DownloadTask
	for _, task := range b.Tasks {
		if task.Status == status {
			out = append(out, task)
		}
	}
	return out
}
