package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/DanielPopoola/payment-engine/internal/application"
	"github.com/DanielPopoola/payment-engine/internal/infrastructure/persistence/sqlite"
	"github.com/DanielPopoola/payment-engine/internal/infrastructure/persistence/testhelpers"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestTransactionRepository(t *testing.T) {
	dir := t.TempDir()
	n := 0

	suite.Run(t, &testhelpers.RepositorySuite{
		NewRepository: func() application.TransactionRepository {
			n++
			db, err := sqlite.Open(context.Background(), filepath.Join(dir, fmt.Sprintf("engine-%d.db", n)))
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })
			return sqlite.NewTransactionRepository(db)
		},
	})
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.db")

	first, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}
