package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
)

// Handler processes events of type T.
type Handler[T any] func(context.Context, T)

type subscription struct {
	id int
	fn func(context.Context, any)
}

// Bus is a simple in-process event dispatcher. Handlers run synchronously on
// the publishing goroutine, so they must not block.
type Bus struct {
	mu     sync.RWMutex
	subs   map[any][]subscription
	nextID int
}

// New creates a new Bus.
func New() *Bus { return &Bus{subs: make(map[any][]subscription)} }

// typeKey returns a comparable key unique to T: a typed nil *T.
func typeKey[T any]() any { return (*T)(nil) }

func subscribeTo[T any](b *Bus, h Handler[T]) (unsubscribe func()) {
	key := typeKey[T]()
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[key] = append(b.subs[key], subscription{
		id: id,
		fn: func(ctx context.Context, v any) { h(ctx, v.(T)) },
	})
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[key]
		for i, s := range list {
			if s.id == id {
				list = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(b.subs, key)
		} else {
			b.subs[key] = list
		}
	}
}

func publishOn[T any](b *Bus, ctx context.Context, e T) {
	if b == nil {
		return
	}
	key := typeKey[T]()
	b.mu.RLock()
	list := b.subs[key]
	if len(list) == 0 {
		b.mu.RUnlock()
		return
	}
	copied := append([]subscription(nil), list...)
	b.mu.RUnlock()
	for _, s := range copied {
		s.fn(ctx, e)
	}
}

var global atomic.Pointer[Bus]

// Use sets the global bus. Passing nil disables event publishing.
func Use(b *Bus) { global.Store(b) }

// Subscribe registers h with the global bus.
func Subscribe[T any](h Handler[T]) (unsubscribe func()) {
	if b := global.Load(); b != nil {
		return subscribeTo(b, h)
	}
	return func() {}
}

// Publish sends e to all handlers subscribed for T on the global bus.
func Publish[T any](ctx context.Context, e T) {
	publishOn(global.Load(), ctx, e)
}
