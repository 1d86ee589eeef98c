// Package enrich fills a card's detail cache on demand.
//
// An enrichment requests every missing field from the content generators
// at once, waits for all of them, merges the results into the existing
// details and writes the merged record back exactly once. Fields that were
// already fetched, including explicitly empty ones, are never requested
// again.
package enrich
