package audit

import (
	"context"
	"time"

	"file-manager/internal/worker"

	"github.com/google/uuid"
)

// Recorder writes audit entries through a bounded worker pool. Record never
// returns an error and never blocks the calling operation: a full queue drops
// the entry and a failed insert is logged by the pool, nothing more.
type Recorder struct {
	repository EntryRepository
	pool       *worker.WorkerPool
}

func NewRecorder(repository EntryRepository, pool *worker.WorkerPool) *Recorder {
	return &Recorder{repository: repository, pool: pool}
}

func (r *Recorder) Record(ev Event) {
	entry := &Entry{
		ID:         uuid.NewString(),
		Type:       ev.Type,
		ActorID:    optional(ev.ActorID),
		TargetID:   optional(ev.TargetID),
		TargetType: ev.TargetType,
		TargetName: optional(ev.TargetName),
		Details:    ev.Details,
		CreatedAt:  time.Now().UTC(),
	}

	r.pool.Submit(func(ctx context.Context) error {
		return r.repository.Insert(ctx, entry)
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
