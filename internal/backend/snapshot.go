package backend

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"yield/internal/core"
	"yield/internal/ports"
	"yield/internal/view"
)

// Source is what a snapshot is loaded from.
type Source interface {
	ports.BrokerLister
	ports.TotalValueLister
}

// LoadSnapshot fetches brokers and total values concurrently and returns
// them as a snapshot stamped with version. Either failure fails the load.
func LoadSnapshot(ctx context.Context, src Source, version uint64) (view.Snapshot, error) {
	g, gctx := errgroup.WithContext(ctx)

	var brokers []core.Broker
	var records []core.TotalValueRecord
	g.Go(func() error {
		var err error
		brokers, err = src.ListBrokers(gctx)
		if err != nil {
			return fmt.Errorf("list brokers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = src.ListTotalValues(gctx)
		if err != nil {
			return fmt.Errorf("list total values: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return view.Snapshot{}, err
	}
	return view.NewSnapshot(brokers, records, version), nil
}
