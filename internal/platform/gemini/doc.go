// Package gemini implements classification.Classifier on top of Google's
// Gemini API.
//
// The classifier renders a prompt template with the memo text, asks the model
// for a JSON array of tags, retries transient failures with exponential
// backoff and jitter, and normalizes the labels it gets back. Safety blocks
// and unparseable answers are permanent and returned without retrying.
package gemini
