package core

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ids(records []TotalValueRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestDistinctYears(t *testing.T) {
	assert.Equal(t, []int{2023, 2024}, DistinctYears(sampleRecords()))
	assert.Empty(t, DistinctYears(nil))
}

func TestDistinctBrokersForYear(t *testing.T) {
	assert.Equal(t, []string{"Avenue", "XP", "Inter"}, DistinctBrokersForYear(sampleRecords(), 2024))
	assert.Equal(t, []string{"Avenue"}, DistinctBrokersForYear(sampleRecords(), 2023))
	assert.Empty(t, DistinctBrokersForYear(sampleRecords(), 1999))
}

func TestDistinctMonthsForYear(t *testing.T) {
	records := append(sampleRecords(),
		rec("8", "2024-02-01", "Inter", "1", "1"),
		rec("9", "2024-07-10", "Inter", "1", "1"),
	)

	got := DistinctMonthsForYear(records, 2024)

	assert.Equal(t, []int{1, 2, 7, 12}, got)
	assert.True(t, sort.IntsAreSorted(got))
	seen := map[int]bool{}
	for _, m := range got {
		assert.False(t, seen[m], "duplicate month %d", m)
		seen[m] = true
	}
}

func TestFilterRecords(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"year only", Filter{Year: 2024}, []string{"1", "2", "3", "6", "7"}},
		{"broker", Filter{Year: 2024, Broker: "Avenue"}, []string{"1", "3"}},
		{"month", Filter{Year: 2024, Month: 2}, []string{"3", "6"}},
		{"broker and month", Filter{Year: 2024, Broker: "XP", Month: 1}, []string{"2"}},
		{"other year", Filter{Year: 2023}, []string{"4"}},
		{"no match", Filter{Year: 2024, Broker: "Inter", Month: 1}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterRecords(records, tt.filter)))
		})
	}
}

func TestFilterRecords_NoFiltersEqualsYearMatch(t *testing.T) {
	records := sampleRecords()
	for _, year := range DistinctYears(records) {
		var want []string
		for _, r := range records {
			if ym, ok := r.YearMonth(); ok && ym.Year == year {
				want = append(want, r.ID)
			}
		}
		assert.Equal(t, want, ids(FilterRecords(records, Filter{Year: year})))
	}
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Jan", MonthLabel(1))
	assert.Equal(t, "Dec", MonthLabel(12))
	assert.Equal(t, "", MonthLabel(0))
	assert.Equal(t, "", MonthLabel(13))
}
