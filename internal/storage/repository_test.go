package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yield/internal/core"
	"yield/internal/ports"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "yield.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_Brokers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	xp, err := repo.AddBroker(ctx, core.Broker{Name: "XP", Currency: "BRL"})
	require.NoError(t, err)
	assert.NotEmpty(t, xp.ID)

	_, err = repo.AddBroker(ctx, core.Broker{Name: "Avenue", Currency: "USD"})
	require.NoError(t, err)

	_, err = repo.AddBroker(ctx, core.Broker{Name: "XP", Currency: "BRL"})
	assert.ErrorIs(t, err, core.ErrDuplicateBroker)

	_, err = repo.AddBroker(ctx, core.Broker{Name: "Inter", Currency: " "})
	assert.ErrorIs(t, err, core.ErrEmptyCurrency)

	brokers, err := repo.ListBrokers(ctx)
	require.NoError(t, err)
	require.Len(t, brokers, 2)
	assert.Equal(t, "XP", brokers[0].Name)
	assert.Equal(t, "Avenue", brokers[1].Name)

	got, err := repo.GetBroker(ctx, xp.ID)
	require.NoError(t, err)
	assert.Equal(t, xp, got)

	_, err = repo.GetBroker(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteRepository_TotalValues(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	broker := core.Broker{Name: "Avenue", Currency: "USD"}

	first := core.TotalValueRecord{Date: "2024-01-31", Currency: "USD", TotalValueInUSD: "100", TotalValueInBRL: "500", Broker: broker}
	second := core.TotalValueRecord{Date: "2024-02-29", Currency: "USD", TotalValueInUSD: "110.5", TotalValueInBRL: "540", Broker: broker}

	msg, err := repo.AddTotalValue(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, ports.MsgTotalValueAdded, msg)

	id, err := repo.InsertTotalValue(ctx, second)
	require.NoError(t, err)

	_, err = repo.AddTotalValue(ctx, core.TotalValueRecord{Date: "nope"})
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	values, err := repo.ListTotalValues(ctx)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "2024-01-31", values[0].Date)
	assert.Equal(t, "Avenue", values[1].Broker.Name)
	assert.Equal(t, id, values[1].ID)

	got, err := repo.GetTotalValue(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "110.5", got.TotalValueInUSD)

	_, err = repo.DeleteTotalValue(ctx, "")
	assert.ErrorIs(t, err, core.ErrMissingID)

	msg, err = repo.DeleteTotalValue(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ports.MsgTotalValueDeleted, msg)

	_, err = repo.DeleteTotalValue(ctx, id)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = repo.GetTotalValue(ctx, id)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yield.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}
