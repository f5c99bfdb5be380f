package zvt

// Handle is returned by Bus.Subscribe and identifies a registered
// handler for later idempotent removal via Bus.Unsubscribe.
type Handle int

// Bus is an explicit, single-threaded observer list for one event type T.
// Per the cooperative scheduling model (§5), all Bus methods are called
// from the same goroutine that drains the transport reader, so a plain
// map suffices — no locking is required.
type Bus[T any] struct {
	nextHandle Handle
	handlers   map[Handle]func(T)
}

func newBus[T any]() *Bus[T] {
	return &Bus[T]{handlers: make(map[Handle]func(T))}
}

// Subscribe registers fn and returns a Handle for later removal.
// Subscribing the same callback twice yields two independent handles.
func (b *Bus[T]) Subscribe(fn func(T)) Handle {
	b.nextHandle++
	h := b.nextHandle
	b.handlers[h] = fn
	return h
}

// Unsubscribe removes the handler registered under h. It is a no-op
// (idempotent) if h is unknown or was already removed.
func (b *Bus[T]) Unsubscribe(h Handle) {
	delete(b.handlers, h)
}

// Len reports the number of currently registered handlers, used by tests
// asserting that CommandSession leaves no dangling subscriptions.
func (b *Bus[T]) Len() int {
	return len(b.handlers)
}

// emit calls every registered handler with value, in registration order
// is not guaranteed (map iteration), which is acceptable because handlers
// for a single event never have an ordering dependency on each other —
// only the wire-order of distinct events is guaranteed (§5).
func (b *Bus[T]) emit(value T) {
	for _, fn := range b.handlers {
		fn(value)
	}
}
