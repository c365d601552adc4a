// Package enrichment implements the bulk tag-enrichment pipeline.
//
// A Locator finds memos that have no tag associations yet. The Enricher
// takes one bounded batch of them, classifies each memo under a concurrency
// cap and commits the resulting tags, marking memos the classifier could not
// label with reserved sentinel tags so they leave the untagged set. The
// Runner drives the Enricher batch after batch until no work remains, no
// progress is made, the caller cancels, or a batch fails.
//
// Progress is never stored. Every batch re-reads the size of the untagged
// set from the store, which keeps counts correct when other writers tag
// memos concurrently.
package enrichment
