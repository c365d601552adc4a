// Package app assembles the enrichment pipeline from configuration. The
// HTTP server and the memotag CLI share it so both run the same stores,
// locator, classifier and metrics.
package app
