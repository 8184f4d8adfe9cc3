// Package events provides a small cancellable publish/subscribe feed. Producers
// publish values; consumers subscribe and can deregister at any time. Once the
// cancel function of a subscription has returned, that subscriber will never
// observe another value.
package events

import (
	"sync"
)

const defaultBuffer = 1

type subscriber[T any] struct {
	ch chan T
}

// discard drops undelivered values and closes the channel. Callers hold the
// feed lock, so nothing can be published in between.
func (s *subscriber[T]) discard() {
	for {
		select {
		case <-s.ch:
		default:
			close(s.ch)
			return
		}
	}
}

// Feed fans values out to any number of subscribers. Slow subscribers are never
// allowed to block the producer: if a subscriber's buffer is full its oldest
// pending value is dropped in favour of the newest one.
type Feed[T any] struct {
	mu     sync.Mutex
	subs   map[*subscriber[T]]struct{}
	buffer int
	closed bool
}

func NewFeed[T any]() *Feed[T] {
	return NewFeedWithBuffer[T](defaultBuffer)
}

func NewFeedWithBuffer[T any](buffer int) *Feed[T] {
	if buffer < 1 {
		buffer = defaultBuffer
	}
	return &Feed[T]{
		subs:   make(map[*subscriber[T]]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a consumer. The returned channel is closed when the
// subscription is cancelled or the feed is closed.
func (f *Feed[T]) Subscribe() (<-chan T, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub := &subscriber[T]{ch: make(chan T, f.buffer)}

	if f.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}

	f.subs[sub] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()

			if _, ok := f.subs[sub]; ok {
				delete(f.subs, sub)
				sub.discard()
			}
		})
	}

	return sub.ch, cancel
}

// Publish delivers value to every current subscriber without blocking.
func (f *Feed[T]) Publish(value T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	for sub := range f.subs {
		for {
			select {
			case sub.ch <- value:
			default:
				// Drop the stale value and retry with the newest
				select {
				case <-sub.ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// Len returns the number of active subscribers.
func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close deregisters every subscriber. Publishing after Close is a no-op.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true

	for sub := range f.subs {
		delete(f.subs, sub)
		sub.discard()
	}
}
