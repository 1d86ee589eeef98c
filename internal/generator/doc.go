// Package generator produces the five kinds of enrichment content for a
// vocabulary card: explanation, illustration, pronunciation, sample dialogue
// and grammar forms.
//
// Providers (Gemini, OpenAI) implement the small Backend interface. FailSafe
// wraps a Backend and turns every provider failure into a degraded result so
// that callers only ever see precondition errors such as missing credentials.
package generator
