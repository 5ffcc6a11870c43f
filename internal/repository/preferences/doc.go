// Package preferences implements the durable key-value store that backs the
// alarm collection.
//
// A Repository hands out immutable Values snapshots for reading and Editors for
// writing. An Editor buffers puts and removals and applies them in a single
// all-or-nothing Commit. Three backends are provided: a JSON document on disk
// (FileRepository), an embedded SQLite database (SQLiteRepository) and an
// in-memory map (MemoryRepository).
package preferences
