// Package storage persists delivery history and send-dedup state.
//
// Two drivers: a dependency-free file backend (JSON Lines + snapshot)
// and SQLite. Storage is optional; with driver "none" the bot runs
// stateless and may resend a reminder after a restart in the same week.
package storage
