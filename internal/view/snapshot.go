package view

import (
	"slices"

	"yield/internal/core"
)

// Snapshot is an immutable copy of the brokers and total values a view is
// computed from. Accessors return copies; derived snapshots are new values.
type Snapshot struct {
	brokers []core.Broker
	records []core.TotalValueRecord
	version uint64
}

func NewSnapshot(brokers []core.Broker, records []core.TotalValueRecord, version uint64) Snapshot {
	return Snapshot{
		brokers: slices.Clone(brokers),
		records: slices.Clone(records),
		version: version,
	}
}

func (s Snapshot) Brokers() []core.Broker { return slices.Clone(s.brokers) }

func (s Snapshot) Records() []core.TotalValueRecord { return slices.Clone(s.records) }

// Version is the refresh count the snapshot was loaded at.
func (s Snapshot) Version() uint64 { return s.version }

// WithBroker returns a snapshot with b appended to the broker list.
func (s Snapshot) WithBroker(b core.Broker) Snapshot {
	next := Snapshot{
		brokers: make([]core.Broker, 0, len(s.brokers)+1),
		records: s.records,
		version: s.version,
	}
	next.brokers = append(append(next.brokers, s.brokers...), b)
	return next
}

// Broker looks a broker up by name.
func (s Snapshot) Broker(name string) (core.Broker, bool) {
	for _, b := range s.brokers {
		if b.Name == name {
			return b, true
		}
	}
	return core.Broker{}, false
}

// Record looks a record up by id.
func (s Snapshot) Record(id string) (core.TotalValueRecord, bool) {
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return core.TotalValueRecord{}, false
}

func (s Snapshot) Table(year int) core.Table {
	return core.BuildTable(s.brokers, s.records, year)
}

// Years lists the years with records plus current, ascending.
func (s Snapshot) Years(current int) []int {
	years := core.DistinctYears(s.records)
	if _, found := slices.BinarySearch(years, current); !found {
		years = append(years, current)
		slices.Sort(years)
	}
	return years
}
