// Package store persists vocabulary cards in SQLite. Card details are kept
// as one JSON document per card and updated with field-level merges.
package store
