// SPDX-License-Identifier: BSD-3-Clause

// Package runtime implements the supervised service tree at the heart of
// the framework: a Context spawns svc.Service instances under a
// cirello.io/oversight/v2 tree sharing one cancel.Token, and a Supervisor
// drives the direct-run lifecycle (build context, construct handler, run
// it, stop the tree).
//
// Context accepts any svc.Service and leaves bus wiring to the caller;
// each child runs under oversight.Transient with an oversight.Timeout
// equal to its own declared shutdown budget, so one failing service never
// takes down its siblings and a hung service never stalls shutdown past
// its own deadline.
package runtime
