// Package syncstatus is a readmodel over the server-side sync job. The job
// itself runs elsewhere; this package only surfaces its latest
// success/failure counters for display.
package syncstatus

import (
	"context"
	"time"
)

// Run is one recorded execution of the sync job.
type Run struct {
	ID         string    `json:"id"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Store reads and records sync runs.
// Latest returns sentinel.ErrNotFound (wrapped) when no run was recorded.
type Store interface {
	Save(ctx context.Context, run *Run) error
	Latest(ctx context.Context) (*Run, error)
}
