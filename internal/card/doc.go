// Package card defines vocabulary cards and their cached rich details.
// Every detail field is tri-state (not fetched, fetched but empty, populated)
// so that an explicitly empty result is never mistaken for a missing one.
package card
