// Package testutil holds deterministic stand-ins used by tests across
// packages: session id generators and a scripted live transport.
package testutil
