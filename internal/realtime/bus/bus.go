package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProgressEvent reports analysis progress for one project: which pass is
// running, which phase it is in, and how far along it is. Observers consume
// these; analysis never blocks on them.
type ProgressEvent struct {
	ProjectID uuid.UUID `json:"project_id"`
	Pass      string    `json:"pass"`  // "full" | "incremental"
	Phase     string    `json:"phase"` // "anchors" | "replay" | "graph" | "done"
	Percent   int       `json:"percent"`
	At        time.Time `json:"at"`
}

type Bus interface {
	Publish(ctx context.Context, event ProgressEvent) error
	// Subscribe registers a callback for every published event. The redis
	// implementation forwards from the pub/sub channel; the memory
	// implementation invokes callbacks synchronously.
	Subscribe(ctx context.Context, onEvent func(event ProgressEvent)) error
	Close() error
}
