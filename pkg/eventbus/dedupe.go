// SPDX-License-Identifier: BSD-3-Clause

package eventbus

import "context"

// Dedupe wraps a Store so that two consecutive equal Values are never
// both delivered to a subscriber. Lagged and Closed events always pass
// through unchanged, since they are not themselves subject to the
// equality comparison.
func Dedupe[T comparable](s Store[T]) Store[T] {
	return &dedupeStore[T]{inner: s}
}

type dedupeStore[T comparable] struct {
	inner Store[T]
}

func (d *dedupeStore[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	in := d.inner.Subscribe(ctx)
	out := make(chan Event[T])

	go func() {
		defer close(out)
		var last T
		haveLast := false

		for ev := range in {
			if !ev.Closed && ev.Lagged == 0 {
				if haveLast && ev.Value == last {
					continue
				}
				last = ev.Value
				haveLast = true
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
