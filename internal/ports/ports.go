package ports

import (
	"context"

	"yield/internal/core"
)

// Ports for outbound adapters. Every backend (memory, sqlite, sheets,
// remote) implements all of them.
type (
	BrokerWriter interface {
		// AddBroker stores a new broker and returns it as persisted.
		AddBroker(ctx context.Context, b core.Broker) (core.Broker, error)
	}

	BrokerLister interface {
		ListBrokers(ctx context.Context) ([]core.Broker, error)
	}

	TotalValueWriter interface {
		// AddTotalValue stores the record and returns the service message.
		AddTotalValue(ctx context.Context, r core.TotalValueRecord) (msg string, err error)
	}

	TotalValueDeleter interface {
		// DeleteTotalValue removes the record with the given id and returns
		// the service message.
		DeleteTotalValue(ctx context.Context, id string) (message string, err error)
	}

	// TotalValueLister returns every stored record in insertion order.
	TotalValueLister interface {
		ListTotalValues(ctx context.Context) ([]core.TotalValueRecord, error)
	}
)

// Backend is the full set of ports.
type Backend interface {
	BrokerWriter
	BrokerLister
	TotalValueWriter
	TotalValueDeleter
	TotalValueLister
}

// Service messages shared by the adapters.
const (
	MsgTotalValueAdded   = "Total value added successfully"
	MsgTotalValueDeleted = "Total value deleted successfully"
)
