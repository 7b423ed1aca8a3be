// Package persistence reads and writes typed state snapshots through a ports.Storage.
//
// Snapshots are JSON. A missing, null or malformed snapshot reads as the
// caller's default, so a machine can always start.
package persistence
