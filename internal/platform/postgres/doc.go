// Package postgres provides PostgreSQL implementations of the storage
// interfaces defined in internal/store and internal/task, together with the
// embedded schema migrations they depend on.
//
// Queries with optional filters are built with squirrel using dollar
// placeholders; fixed statements are written inline. Driver errors are
// translated to store errors with MapError.
package postgres
