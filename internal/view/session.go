package view

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"yield/internal/core"
)

// AddNewBroker is the broker-select value that opens the add-broker form.
const AddNewBroker = "__add_new__"

// Model is everything needed to render the view for one snapshot.
type Model struct {
	Year           int                     `json:"year"`
	Years          []int                   `json:"years"`
	MonthLabels    []string                `json:"monthLabels"`
	Table          core.Table              `json:"table"`
	YearTotal      core.MonthTotal         `json:"yearTotal"`
	Brokers        []core.Broker           `json:"brokers"`
	SelectedBroker string                  `json:"selectedBroker,omitempty"`
	Panels         Panels                  `json:"panels"`
	Search         Search                  `json:"search"`
	SearchOptions  SearchOptions           `json:"searchOptions"`
	SearchResults  []core.TotalValueRecord `json:"searchResults"`
	Version        uint64                  `json:"version"`
}

// Session is the view-model of one client. It reads from an immutable
// snapshot and replaces it wholesale on Load. A Session is not safe for
// concurrent use.
type Session struct {
	snap     Snapshot
	commands *Commands
	panels   Panels
	search   Search
	year     int
	broker   string
}

// NewSession starts on the current calendar year with every panel closed.
func NewSession(snap Snapshot, commands *Commands, now time.Time) *Session {
	year := now.Year()
	return &Session{
		snap:     snap,
		commands: commands,
		year:     year,
		search:   Search{Year: year},
	}
}

// Load replaces the snapshot after a refresh.
func (s *Session) Load(snap Snapshot) {
	s.snap = snap
}

func (s *Session) Snapshot() Snapshot { return s.snap }

func (s *Session) Panels() Panels { return s.panels }

func (s *Session) SelectYear(year int) {
	s.year = year
	s.search.Year = year
}

func (s *Session) Open(p Panel) {
	s.panels.Open(p)
}

// Close closes p; closing the search panel also resets its filters.
func (s *Session) Close(p Panel) {
	s.panels.Close(p)
	if p == PanelSearch {
		s.search.Reset(s.year)
	}
}

// SelectBroker chooses the broker for the add-total-value form. The
// AddNewBroker value opens the add-broker form and clears the selection.
func (s *Session) SelectBroker(name string) {
	if name == AddNewBroker {
		s.broker = ""
		s.panels.Open(PanelAddBroker)
		return
	}
	s.broker = name
}

// SetSearch sets the search filters for the session year.
func (s *Session) SetSearch(broker string, month int) {
	s.search.Year = s.year
	s.search.Broker = broker
	s.search.Month = month
}

// AddBroker submits the add-broker form. On success the broker is
// appended to the session snapshot so it can be selected immediately.
func (s *Session) AddBroker(ctx context.Context, name, currency string) (Outcome, error) {
	created, out, err := s.commands.AddBroker(ctx, name, currency)
	if err != nil {
		return Outcome{}, err
	}
	s.snap = s.snap.WithBroker(created)
	s.apply(out)
	return out, nil
}

// AddTotalValue submits the add-total-value form with the selected broker.
func (s *Session) AddTotalValue(ctx context.Context, date, usd, brl string) (Outcome, error) {
	in := TotalValueInput{Date: date, USD: usd, BRL: brl}
	if b, ok := s.snap.Broker(s.broker); ok {
		in.Broker = b
	}
	out, err := s.commands.AddTotalValue(ctx, in)
	if err != nil {
		return Outcome{}, err
	}
	s.broker = ""
	s.apply(out)
	return out, nil
}

// DeleteTotalValue deletes the snapshot record with id. An empty id is
// rejected without calling the service; an id missing from the snapshot
// yields core.ErrNotFound.
func (s *Session) DeleteTotalValue(ctx context.Context, id string) (Outcome, error) {
	var rec *core.TotalValueRecord
	if strings.TrimSpace(id) != "" {
		r, ok := s.snap.Record(id)
		if !ok {
			return Outcome{}, fmt.Errorf("total value %s: %w", id, core.ErrNotFound)
		}
		rec = &r
	}
	out, err := s.commands.DeleteTotalValue(ctx, rec)
	if err != nil {
		return Outcome{}, err
	}
	s.apply(out)
	return out, nil
}

func (s *Session) apply(out Outcome) {
	for _, p := range out.Close {
		s.panels.Close(p)
	}
	if out.ResetSearch {
		s.search.Reset(s.year)
	}
}

func (s *Session) Model(now time.Time) Model {
	records := s.snap.Records()
	m := Model{
		Year:           s.year,
		Years:          s.snap.Years(now.Year()),
		MonthLabels:    slices.Clone(core.MonthLabels[:]),
		Table:          s.snap.Table(s.year),
		YearTotal:      core.YearTotal(records, s.year),
		Brokers:        s.snap.Brokers(),
		SelectedBroker: s.broker,
		Panels:         s.panels,
		Search:         s.search,
		Version:        s.snap.Version(),
	}
	if s.panels.Searching {
		m.SearchOptions = s.search.Options(records)
		m.SearchResults = s.search.Results(records)
	} else {
		m.SearchOptions = SearchOptions{Brokers: []string{}, Months: []int{}}
		m.SearchResults = []core.TotalValueRecord{}
	}
	return m
}
