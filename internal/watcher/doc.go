// Package watcher reports changes to a single file made by any process.
//
// The containing directory is watched rather than the file itself so that
// atomic replacements (write to a temporary file, then rename) are seen.
package watcher
