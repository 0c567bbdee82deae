// SPDX-License-Identifier: BSD-3-Clause

// Package telemetry configures the OpenTelemetry trace and log pipelines
// daemonkit's svcmgr backends and statefsm emit spans through, and that
// internal/obslog bridges its log fan-out to. ExporterType defaults to
// NoOp, so linking daemonkit never requires an OTEL collector to be
// reachable; call Setup with WithOTLPHTTP/WithOTLPgRPC to actually
// export.
package telemetry
