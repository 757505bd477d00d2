// Package testutil provides shared helpers for repository tests.
package testutil

import (
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/geonho/vocautobot-backend/internal/adapter/postgres"
)

// NewMockQuerier returns a pgxmock pool usable wherever a postgres.Querier
// is expected, plus the mock handle for setting expectations. Unmet
// expectations fail the test during cleanup.
func NewMockQuerier(t *testing.T) (postgres.Querier, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool() error = %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet mock expectations: %v", err)
		}
		mock.Close()
	})

	return mock, mock
}
