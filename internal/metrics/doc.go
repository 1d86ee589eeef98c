// Package metrics defines the Prometheus collectors for enrichment,
// content generation and audio playback/capture.
package metrics
