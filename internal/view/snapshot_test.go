package view

import (
	"testing"

	"yield/internal/core"
)

func TestSnapshot_Immutable(t *testing.T) {
	brokers := []core.Broker{{Name: "XP", Currency: "BRL"}}
	records := []core.TotalValueRecord{{ID: "tv-1", Date: "2024-01-31"}}
	snap := NewSnapshot(brokers, records, 1)

	brokers[0].Name = "changed"
	got := snap.Brokers()
	if got[0].Name != "XP" {
		t.Fatal("snapshot shares the caller's slice")
	}
	got[0].Name = "changed"
	if snap.Brokers()[0].Name != "XP" {
		t.Fatal("Brokers() leaks internal state")
	}

	derived := snap.WithBroker(core.Broker{Name: "Avenue", Currency: "USD"})
	if len(snap.Brokers()) != 1 || len(derived.Brokers()) != 2 {
		t.Fatalf("WithBroker mutated the original: %d / %d", len(snap.Brokers()), len(derived.Brokers()))
	}
	if _, ok := derived.Broker("Avenue"); !ok {
		t.Error("derived snapshot misses the new broker")
	}
	if _, ok := derived.Record("tv-1"); !ok {
		t.Error("derived snapshot lost records")
	}
}

func TestPanels(t *testing.T) {
	var p Panels
	p.Open(PanelAddTotalValue)
	p.Open(PanelAddBroker)
	p.Open(PanelSearch)
	if !p.IsOpen(PanelAddTotalValue) || !p.IsOpen(PanelAddBroker) || !p.IsOpen(PanelSearch) {
		t.Fatalf("panels not open: %+v", p)
	}

	p.Close(PanelAddBroker)
	if p.AddingBroker || !p.AddingTotalValue {
		t.Errorf("closing add-broker should leave add-total-value open: %+v", p)
	}

	p.Open(PanelAddBroker)
	p.Close(PanelAddTotalValue)
	if p.AddingBroker || p.AddingTotalValue || !p.Searching {
		t.Errorf("closing add-total-value should also close add-broker only: %+v", p)
	}
}
