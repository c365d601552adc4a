// Package service contains the application use cases. It coordinates the
// stores, the enrichment pipeline and the background task runner, and is
// the only layer the HTTP handlers and the CLI talk to.
//
// Key components:
//
// 1. MemoService:
//   - Creates, imports, lists, searches and deletes memos
//   - Schedules background tagging of new memos through task-request events
//   - Implements task.MemoTagger for the tagging task
//
// 2. EnrichmentService:
//   - Runs single enrichment batches synchronously
//   - Starts multi-batch runs as background tasks and tracks their progress
//     in an in-memory run registry
//   - Implements task.RunExecutor for the run task
//
// Service methods return the sentinel errors of this package, of enrichment
// and of store; callers check them with errors.Is.
package service
