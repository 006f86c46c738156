package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yield/internal/config"
	"yield/internal/core"
)

func TestBackendType_IsValid(t *testing.T) {
	for _, bt := range []BackendType{MemoryBackend, SQLiteBackend, SheetsBackend, RemoteBackend} {
		assert.True(t, bt.IsValid(), bt.String())
	}
	assert.False(t, BackendType("postgres").IsValid())
}

func TestFactory_Memory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed_brokers.txt"), []byte("XP,BRL\nAvenue,USD\n"), 0o644))

	res, err := NewFactory(nil).CreateBackend(context.Background(), &config.Config{DataBackend: "memory", DataDir: dir})
	require.NoError(t, err)
	defer res.Close()
	assert.Equal(t, MemoryBackend, res.Type)

	brokers, err := res.Backend.ListBrokers(context.Background())
	require.NoError(t, err)
	require.Len(t, brokers, 2)
	assert.Equal(t, "XP", brokers[0].Name)
}

func TestFactory_SQLite(t *testing.T) {
	cfg := &config.Config{DataBackend: "sqlite", SQLiteDBPath: filepath.Join(t.TempDir(), "yield.db")}
	res, err := NewFactory(nil).CreateBackend(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { res.Close() })

	pinger, ok := res.Backend.(Pinger)
	require.True(t, ok)
	assert.NoError(t, pinger.Ping(context.Background()))

	_, err = res.Backend.AddBroker(context.Background(), core.Broker{Name: "XP", Currency: "BRL"})
	require.NoError(t, err)
}

func TestFactory_Remote(t *testing.T) {
	cfg := &config.Config{DataBackend: "remote", RemoteAPIURL: "http://localhost:9999", RemoteTimeout: time.Second}
	res, err := NewFactory(nil).CreateBackend(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, RemoteBackend, res.Type)
	assert.Nil(t, res.Cleanup)
}

func TestFactory_Rejects(t *testing.T) {
	f := NewFactory(nil)
	_, err := f.CreateBackend(context.Background(), nil)
	assert.Error(t, err)

	_, err = f.CreateBackend(context.Background(), &config.Config{DataBackend: "postgres"})
	assert.ErrorContains(t, err, "invalid backend type")
}

type fakeSource struct {
	brokers    []core.Broker
	records    []core.TotalValueRecord
	brokersErr error
	recordsErr error
}

func (f fakeSource) ListBrokers(context.Context) ([]core.Broker, error) {
	return f.brokers, f.brokersErr
}

func (f fakeSource) ListTotalValues(context.Context) ([]core.TotalValueRecord, error) {
	return f.records, f.recordsErr
}

func TestLoadSnapshot(t *testing.T) {
	src := fakeSource{
		brokers: []core.Broker{{Name: "XP", Currency: "BRL"}},
		records: []core.TotalValueRecord{{ID: "1", Date: "2024-01-10", TotalValueInUSD: "1", TotalValueInBRL: "5", Broker: core.Broker{Name: "XP"}}},
	}
	snap, err := LoadSnapshot(context.Background(), src, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), snap.Version())
	assert.Len(t, snap.Brokers(), 1)
	assert.Len(t, snap.Records(), 1)
}

func TestLoadSnapshot_Errors(t *testing.T) {
	boom := errors.New("boom")

	_, err := LoadSnapshot(context.Background(), fakeSource{brokersErr: boom}, 1)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "list brokers")

	_, err = LoadSnapshot(context.Background(), fakeSource{recordsErr: boom}, 1)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "list total values")
}
