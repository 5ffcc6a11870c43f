// Package client implements the radio-alarm command-line client.
//
// Each invocation loads the settings, connects to the daemon, performs a
// single operation and prints the result as a table or a status line.
package client
