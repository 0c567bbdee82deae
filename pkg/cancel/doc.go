// SPDX-License-Identifier: BSD-3-Clause

// Package cancel provides a hierarchical cancellation token used to
// coordinate shutdown across a tree of supervised background services.
//
// A Token wraps a context.Context and its CancelFunc. Cancelling a token
// cancels every token derived from it via Child, but cancelling a child
// never cancels its parent. This is exactly the shape context.WithCancel
// already provides; Token exists to give the supervision tree a named,
// documented vocabulary (Cancel, Cancelled, IsCancelled, Child) instead of
// passing raw contexts and cancel funcs around separately.
package cancel
