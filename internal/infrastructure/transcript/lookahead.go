// Package transcript provides line sources for shell transcripts and a
// push-back buffer for peeking ahead of a forward-only source.
package transcript

// Source is a forward-only sequence. Next reports false once exhausted.
type Source[T any] interface {
	Next() (T, bool)
}

// Lookahead wraps a Source and lets callers push items back to be read
// again. Pushed-back items are replayed in the order they were pushed,
// before anything new is read from the source.
type Lookahead[T any] struct {
	src Source[T]
	buf []T
}

// NewLookahead wraps src
func NewLookahead[T any](src Source[T]) *Lookahead[T] {
	return &Lookahead[T]{src: src}
}

// Next returns the oldest pushed-back item, or the next item from the source
func (l *Lookahead[T]) Next() (T, bool) {
	if len(l.buf) > 0 {
		item := l.buf[0]
		var zero T
		l.buf[0] = zero
		l.buf = l.buf[1:]
		return item, true
	}
	return l.src.Next()
}

// PutBack queues item to be returned by a later Next
func (l *Lookahead[T]) PutBack(item T) {
	l.buf = append(l.buf, item)
}

// Pending returns the number of queued items
func (l *Lookahead[T]) Pending() int { return len(l.buf) }
