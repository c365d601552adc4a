//go:build integration

// Package testdb provides helpers for database integration tests.
//
// Tests run inside a transaction that is rolled back when the test ends, so
// they can use t.Parallel and never clean up after themselves:
//
//	func TestSomething(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        memos := postgres.NewPostgresMemoStore(tx, nil)
//	        // ...
//	    })
//	}
//
// DATABASE_URL selects the database; tests are skipped when it is unset.
package testdb
