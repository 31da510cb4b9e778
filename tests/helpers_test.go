// Package tests contains test cases for the gateway flows and repositories to avoid circular imports
package tests

import (
	"testing"

	testingutil "github.com/amirphl/Susanoo/testing"
)

// withTestDB provisions a throwaway database for the test and skips when no
// PostgreSQL server is reachable, so the pure-logic tests still run everywhere.
func withTestDB(t *testing.T, fn func(t *testing.T, testDB *testingutil.TestDB)) {
	t.Helper()

	testDB, err := testingutil.SetupTestDB()
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	defer func() {
		if cleanupErr := testDB.TeardownTestDB(); cleanupErr != nil {
			t.Logf("Warning: failed to cleanup test database: %v", cleanupErr)
		}
	}()

	fn(t, testDB)
}
