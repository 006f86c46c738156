package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"yield/internal/amqp"
	"yield/internal/core"
	"yield/internal/ports"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) AddBroker(ctx context.Context, b core.Broker) (core.Broker, error) {
	args := m.Called(ctx, b)
	return args.Get(0).(core.Broker), args.Error(1)
}

func (m *mockStore) ListBrokers(ctx context.Context) ([]core.Broker, error) {
	args := m.Called(ctx)
	return args.Get(0).([]core.Broker), args.Error(1)
}

func (m *mockStore) InsertTotalValue(ctx context.Context, rec core.TotalValueRecord) (string, error) {
	args := m.Called(ctx, rec)
	return args.String(0), args.Error(1)
}

func (m *mockStore) DeleteTotalValue(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *mockStore) ListTotalValues(ctx context.Context) ([]core.TotalValueRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]core.TotalValueRecord), args.Error(1)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

func changeMatching(entity, op, id string) interface{} {
	return mock.MatchedBy(func(msg *amqp.ChangeMessage) bool {
		return msg.Entity == entity && msg.Op == op && msg.ID == id
	})
}

func TestLedgerService_AddTotalValue(t *testing.T) {
	ctx := context.Background()
	rec := core.TotalValueRecord{Date: "2024-03-15", TotalValueInUSD: "100", TotalValueInBRL: "500", Broker: core.Broker{Name: "X"}}

	t.Run("publishes after save", func(t *testing.T) {
		store := new(mockStore)
		pub := new(mockPublisher)
		store.On("InsertTotalValue", ctx, rec).Return("tv-1", nil)
		pub.On("PublishChange", ctx, changeMatching(amqp.EntityTotalValue, amqp.OpCreated, "tv-1")).Return(nil)

		msg, err := NewLedgerService(store, pub).AddTotalValue(ctx, rec)
		require.NoError(t, err)
		assert.Equal(t, ports.MsgTotalValueAdded, msg)
		store.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("publish failure does not fail the write", func(t *testing.T) {
		store := new(mockStore)
		pub := new(mockPublisher)
		store.On("InsertTotalValue", ctx, rec).Return("tv-2", nil)
		pub.On("PublishChange", ctx, mock.Anything).Return(amqp.ErrCircuitOpen)

		_, err := NewLedgerService(store, pub).AddTotalValue(ctx, rec)
		assert.NoError(t, err)
	})

	t.Run("store failure skips publish", func(t *testing.T) {
		store := new(mockStore)
		pub := new(mockPublisher)
		store.On("InsertTotalValue", ctx, rec).Return("", errors.New("disk full"))

		_, err := NewLedgerService(store, pub).AddTotalValue(ctx, rec)
		assert.ErrorContains(t, err, "disk full")
		pub.AssertNotCalled(t, "PublishChange", mock.Anything, mock.Anything)
	})

	t.Run("nil publisher", func(t *testing.T) {
		store := new(mockStore)
		store.On("InsertTotalValue", ctx, rec).Return("tv-3", nil)

		_, err := NewLedgerService(store, nil).AddTotalValue(ctx, rec)
		assert.NoError(t, err)
	})
}

func TestLedgerService_DeleteTotalValue(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	pub := new(mockPublisher)
	store.On("DeleteTotalValue", ctx, "tv-1").Return(ports.MsgTotalValueDeleted, nil)
	store.On("DeleteTotalValue", ctx, "missing").Return("", core.ErrNotFound)
	pub.On("PublishChange", ctx, changeMatching(amqp.EntityTotalValue, amqp.OpDeleted, "tv-1")).Return(nil).Once()

	svc := NewLedgerService(store, pub)
	msg, err := svc.DeleteTotalValue(ctx, "tv-1")
	require.NoError(t, err)
	assert.Equal(t, ports.MsgTotalValueDeleted, msg)

	_, err = svc.DeleteTotalValue(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
	pub.AssertExpectations(t)
}

func TestLedgerService_AddBroker(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	pub := new(mockPublisher)
	in := core.Broker{Name: "XP", Currency: "BRL"}
	store.On("AddBroker", ctx, in).Return(core.Broker{ID: "b-1", Name: "XP", Currency: "BRL"}, nil)
	pub.On("PublishChange", ctx, changeMatching(amqp.EntityBroker, amqp.OpCreated, "b-1")).Return(nil)

	got, err := NewLedgerService(store, pub).AddBroker(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "b-1", got.ID)
	pub.AssertExpectations(t)
}

func TestLedgerService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		assert.NoError(t, (&LedgerService{}).Close())
	})

	t.Run("aggregates errors", func(t *testing.T) {
		store := new(mockStore)
		pub := new(mockPublisher)
		store.On("Close").Return(errors.New("db busy"))
		pub.On("Close").Return(errors.New("channel gone"))

		err := NewLedgerService(store, pub).Close()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db busy")
		assert.Contains(t, err.Error(), "channel gone")
	})
}
