package bus

import (
	"context"
	"sync"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
)

type memoryBus struct {
	log *logger.Logger

	mu        sync.RWMutex
	listeners []func(event ProgressEvent)
	closed    bool
}

// NewMemoryBus returns an in-process bus. It is the default when no
// REDIS_ADDR is configured; single-instance deployments need nothing more.
func NewMemoryBus(log *logger.Logger) Bus {
	return &memoryBus{log: log.With("service", "MemoryBus")}
}

func (b *memoryBus) Publish(ctx context.Context, event ProgressEvent) error {
	b.mu.RLock()
	listeners := make([]func(event ProgressEvent), len(b.listeners))
	copy(listeners, b.listeners)
	closed := b.closed
	b.mu.RUnlock()

	if closed {
		return nil
	}
	for _, onEvent := range listeners {
		onEvent(event)
	}
	return nil
}

func (b *memoryBus) Subscribe(ctx context.Context, onEvent func(event ProgressEvent)) error {
	if onEvent == nil {
		return nil
	}
	b.mu.Lock()
	b.listeners = append(b.listeners, onEvent)
	b.mu.Unlock()
	return nil
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.listeners = nil
	b.mu.Unlock()
	return nil
}
