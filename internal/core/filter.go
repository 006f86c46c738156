package core

import "sort"

// Filter selects records for the search view. An empty Broker or a zero
// Month matches everything for that field; Year always applies.
type Filter struct {
	Year   int
	Broker string
	Month  int
}

// DistinctYears returns the years present in records, ascending.
func DistinctYears(records []TotalValueRecord) []int {
	seen := map[int]struct{}{}
	out := make([]int, 0)
	for _, r := range records {
		ym, ok := r.YearMonth()
		if !ok {
			continue
		}
		if _, dup := seen[ym.Year]; dup {
			continue
		}
		seen[ym.Year] = struct{}{}
		out = append(out, ym.Year)
	}
	sort.Ints(out)
	return out
}

// DistinctBrokersForYear returns broker names with records in year, in
// first-seen order.
func DistinctBrokersForYear(records []TotalValueRecord, year int) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, r := range records {
		ym, ok := r.YearMonth()
		if !ok || ym.Year != year {
			continue
		}
		if _, dup := seen[r.Broker.Name]; dup {
			continue
		}
		seen[r.Broker.Name] = struct{}{}
		out = append(out, r.Broker.Name)
	}
	return out
}

// DistinctMonthsForYear returns the months (1-12) with records in year,
// ascending and without duplicates.
func DistinctMonthsForYear(records []TotalValueRecord, year int) []int {
	var present [MonthsPerYear + 1]bool
	for _, r := range records {
		ym, ok := r.YearMonth()
		if !ok || ym.Year != year {
			continue
		}
		present[ym.Month] = true
	}
	out := make([]int, 0)
	for m := 1; m <= MonthsPerYear; m++ {
		if present[m] {
			out = append(out, m)
		}
	}
	return out
}

// FilterRecords keeps the records matching f, preserving input order.
func FilterRecords(records []TotalValueRecord, f Filter) []TotalValueRecord {
	out := make([]TotalValueRecord, 0)
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Match reports whether r passes the filter.
func (f Filter) Match(r TotalValueRecord) bool {
	ym, ok := r.YearMonth()
	if !ok || ym.Year != f.Year {
		return false
	}
	if f.Broker != "" && r.Broker.Name != f.Broker {
		return false
	}
	if f.Month != 0 && ym.Month != f.Month {
		return false
	}
	return true
}

// MonthLabel returns the short label of a 1-based month, or "" when out of range.
func MonthLabel(month int) string {
	if month < 1 || month > MonthsPerYear {
		return ""
	}
	return MonthLabels[month-1]
}
