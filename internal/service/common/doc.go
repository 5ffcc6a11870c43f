// Package common holds helpers shared by the daemon and the command-line client.
//
// It provides a gRPC client for the alarm service with per-call timeouts and
// the actor (hostname and username) attached to requests for audit logging.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
