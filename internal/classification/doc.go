// Package classification defines the boundary between the application and
// the external language model that suggests tags for memos. It holds the
// Classifier interface, the errors a classifier may report, and helpers that
// turn raw model output into clean tag names.
package classification
