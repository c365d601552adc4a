// Package task manages background job queuing, processing, and lifecycle.
//
// Tasks are persisted before they are queued so that work interrupted by a
// restart can be recovered: on start the runner reloads pending and
// processing rows and turns them back into executable tasks through a
// Registry keyed by task type. Two task types exist: tagging a single memo
// and executing a multi-batch enrichment run.
package task
