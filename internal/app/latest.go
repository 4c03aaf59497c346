package app

// Latest is a single-slot mailbox between one writer and one reader. Publish
// replaces any value the reader has not taken yet and never blocks;
// TryReceive never blocks either.
type Latest[T any] struct {
	ch chan T
}

// NewLatest creates an empty mailbox.
func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{ch: make(chan T, 1)}
}

// Publish stores v, discarding an unread older value.
func (l *Latest[T]) Publish(v T) {
	for {
		select {
		case l.ch <- v:
			return
		default:
		}
		select {
		case <-l.ch:
		default:
		}
	}
}

// TryReceive takes the pending value, if any.
func (l *Latest[T]) TryReceive() (T, bool) {
	select {
	case v := <-l.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// C exposes the mailbox for select loops.
func (l *Latest[T]) C() <-chan T {
	return l.ch
}
