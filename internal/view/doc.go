// Package view implements the lifecycle of a card detail view: enrichment
// of missing details, speech playback, and recording and replaying the
// learner's own pronunciation. Closing a view discards in-flight
// enrichments and releases every audio device the view holds.
package view
