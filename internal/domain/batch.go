package domain

// BatchResult reports the outcome of one enrichment batch.
type BatchResult struct {
	// Processed counts memos that reached a terminal tagged state, including
	// memos that only received the unclassified marker.
	Processed int `json:"processed"`

	// Failed counts memos whose classification or commit errored.
	Failed int `json:"failed"`

	// Quarantined counts the failed memos whose classification-error marker
	// was written, so they left the untagged set despite failing.
	Quarantined int `json:"quarantined"`

	// Remaining is the size of the untagged set observed after the batch.
	// It is always re-read from the store.
	Remaining int `json:"remaining"`
}

// MadeProgress reports whether the batch moved any memo out of the untagged
// set. A batch whose failures could not even be quarantined made none.
func (r BatchResult) MadeProgress() bool {
	return r.Processed > 0 || r.Quarantined > 0
}
