package event

import (
	"context"
	"errors"
	"sync"
)

// Handler reacts to one published event.
type Handler[T any] func(ctx context.Context, evt T) error

// Bus delivers events of type T to every subscriber synchronously, in
// subscription order.
type Bus[T any] struct {
	mu       sync.RWMutex
	handlers []Handler[T]
}

func NewBus[T any]() *Bus[T] {
	return &Bus[T]{}
}

// Subscribe registers h for all future events.
func (b *Bus[T]) Subscribe(h Handler[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish runs every handler even if some fail and returns their joined errors.
func (b *Bus[T]) Publish(ctx context.Context, evt T) error {
	b.mu.RLock()
	handlers := append([]Handler[T](nil), b.handlers...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
