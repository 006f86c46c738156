package view

import "yield/internal/core"

// Search is the state of the search panel.
type Search struct {
	Year   int    `json:"year"`
	Broker string `json:"broker"`
	Month  int    `json:"month"`
}

// SearchOptions are the choices offered for the selected year.
type SearchOptions struct {
	Brokers []string `json:"brokers"`
	Months  []int    `json:"months"`
}

// Ready reports whether both a broker and a month have been chosen.
// Results are only listed once it is.
func (s Search) Ready() bool {
	return s.Broker != "" && s.Month >= 1 && s.Month <= core.MonthsPerYear
}

func (s Search) Filter() core.Filter {
	return core.Filter{Year: s.Year, Broker: s.Broker, Month: s.Month}
}

func (s Search) Options(records []core.TotalValueRecord) SearchOptions {
	return SearchOptions{
		Brokers: core.DistinctBrokersForYear(records, s.Year),
		Months:  core.DistinctMonthsForYear(records, s.Year),
	}
}

// Results filters records, or returns an empty list until Ready.
func (s Search) Results(records []core.TotalValueRecord) []core.TotalValueRecord {
	if !s.Ready() {
		return []core.TotalValueRecord{}
	}
	return core.FilterRecords(records, s.Filter())
}

// Reset clears the broker and month filters for year.
func (s *Search) Reset(year int) {
	*s = Search{Year: year}
}
