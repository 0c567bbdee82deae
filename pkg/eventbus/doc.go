// SPDX-License-Identifier: BSD-3-Clause

// Package eventbus provides a typed broadcast channel with fan-out,
// backpressure-aware lag reporting, and a dedupe adapter.
//
// Every subscriber that falls more than the ring buffer's capacity behind
// its producer observes exactly one Lagged(n) item identifying how many
// items it skipped, then resumes from the oldest surviving item. No
// subscriber silently misses an event without that signal. NATS core
// pub/sub (the broker pkg/bus embeds) drops messages for a slow
// subscriber without reporting how many were lost, which is why the
// in-process bus is this small stdlib ring buffer instead.
package eventbus
