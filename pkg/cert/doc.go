// SPDX-License-Identifier: BSD-3-Clause

// Package cert generates TLS material for pkg/controlsrv's optional HTTP
// control surface: a self-signed certificate for local/dev use, or a
// Let's Encrypt certificate via ACME for a publicly reachable one. See
// Config and the options in config.go for the available knobs.
package cert
