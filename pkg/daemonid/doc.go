// SPDX-License-Identifier: BSD-3-Clause

// Package daemonid generates UUIDs for daemonkit's stable, restart-surviving
// identifiers, such as the per-host node identity pkg/bus stamps onto the
// ServiceInfo announcements it relays.
package daemonid
