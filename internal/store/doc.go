// Package store persists one tracked account's followers in SQLite.
//
// Each follower is a single row keyed by screen name. The profile columns
// are written once, when the follower is first discovered, and never
// refreshed. Reputation columns and the check markers are rewritten by
// each successful check. A blocked follower keeps whatever scores it had.
//
// Listing progress lives beside the followers in the sync_states table so a
// sync interrupted between pages resumes from the last committed cursor.
package store
