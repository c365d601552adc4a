// Package events decouples services from the background task machinery.
//
// Services publish a TaskRequestEvent describing work they want done later,
// for example tagging a freshly created memo, without importing the task
// package. Handlers subscribe to the event types they understand.
package events
