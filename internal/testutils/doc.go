// Package testutils provides in-memory collaborators and fixture helpers for
// unit tests.
//
// MemStore is a concurrency-safe implementation of both store.MemoStore and
// store.TagStore with hooks for injecting failures. The classifier fakes
// cover the common shapes needed by pipeline tests: fixed answers, scripted
// failures, and a probe that records peak in-flight calls.
//
// Database-backed helpers for integration tests live in package testdb.
package testutils
