// Package storage persists the bot's durable state in SQLite:
//
//   - Pending submissions (the moderation queue backing table)
//   - Registered broadcast destinations
//   - The append-only delivery log that feeds statistics
//
// Submission ids come from SQLite's AUTOINCREMENT rowid, which is durable
// and strictly increasing across restarts.
package storage
