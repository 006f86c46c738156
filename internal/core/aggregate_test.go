package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id, date, broker, usd, brl string) TotalValueRecord {
	return TotalValueRecord{
		ID:              id,
		Date:            date,
		Currency:        "USD",
		TotalValueInUSD: usd,
		TotalValueInBRL: brl,
		Broker:          Broker{Name: broker, Currency: "USD"},
	}
}

func total(usd, brl string) MonthTotal {
	return MonthTotal{USD: decimal.RequireFromString(usd), BRL: decimal.RequireFromString(brl)}
}

func sampleRecords() []TotalValueRecord {
	return []TotalValueRecord{
		rec("1", "2024-01-31", "Avenue", "1000", "5000"),
		rec("2", "2024-01-31", "XP", "200.50", "1000.25"),
		rec("3", "2024-02-29", "Avenue", "1100", "5400"),
		rec("4", "2023-12-31", "Avenue", "900", "4500"),
		rec("5", "not-a-date", "Avenue", "9999", "9999"),
		rec("6", "2024-02-29", "XP", "abc", ""),
		rec("7", "2024-12-01", "Inter", "10", "50"),
	}
}

func TestMonthlyTotalFor_SingleRecordExample(t *testing.T) {
	records := []TotalValueRecord{rec("a", "2024-03-15", "X", "100", "500")}

	got := MonthlyTotalFor(records, "X", 2, 2024)
	assert.True(t, got.Equal(total("100", "500")), "march: %v", got)

	for m := 0; m < MonthsPerYear; m++ {
		if m == 2 {
			continue
		}
		assert.True(t, MonthlyTotalFor(records, "X", m, 2024).IsZero(), "month index %d", m)
	}
}

func TestMonthlyTotalFor_NoMatch(t *testing.T) {
	records := sampleRecords()

	assert.True(t, MonthlyTotalFor(records, "Nobody", 0, 2024).IsZero())
	assert.True(t, MonthlyTotalFor(records, "Avenue", 0, 2022).IsZero())
	assert.True(t, MonthlyTotalFor(records, "Avenue", -1, 2024).IsZero())
	assert.True(t, MonthlyTotalFor(records, "Avenue", 12, 2024).IsZero())
}

func TestMonthlyTotalFor_InvalidAmountsCountAsZero(t *testing.T) {
	got := MonthlyTotalFor(sampleRecords(), "XP", 1, 2024)
	assert.True(t, got.IsZero())
}

func TestMonthlyTotalFor_GroupedAndExponentAmounts(t *testing.T) {
	records := []TotalValueRecord{rec("1", "2024-06-30", "XP", "1,234.56", "1e3")}

	got := MonthlyTotalFor(records, "XP", 5, 2024)
	assert.True(t, got.Equal(total("1234.56", "1000")), "got %v", got)
}

func TestMonthlyTotalFor_FirstDuplicateWins(t *testing.T) {
	records := []TotalValueRecord{
		rec("first", "2024-05-02", "XP", "10", "50"),
		rec("second", "2024-05-20", "XP", "20", "100"),
	}

	got := MonthlyTotalFor(records, "XP", 4, 2024)
	assert.True(t, got.Equal(total("10", "50")), "got %v", got)

	// The across-brokers total still counts both.
	across := MonthlyTotalsAcrossBrokers(records, 2024)
	assert.True(t, across[4].Equal(total("30", "150")), "got %v", across[4])

	dups := Duplicates(records, 2024)
	require.Len(t, dups, 1)
	assert.Equal(t, DuplicateKey{Broker: "XP", YearMonth: YearMonth{2024, 5}, Count: 2}, dups[0])
	assert.Empty(t, Duplicates(records, 2023))
}

func TestMonthlyTotalsAcrossBrokers(t *testing.T) {
	got := MonthlyTotalsAcrossBrokers(sampleRecords(), 2024)

	assert.True(t, got[0].Equal(total("1200.50", "6000.25")), "jan: %v", got[0])
	assert.True(t, got[1].Equal(total("1100", "5400")), "feb: %v", got[1])
	assert.True(t, got[11].Equal(total("10", "50")), "dec: %v", got[11])
	for m := 2; m < 11; m++ {
		assert.True(t, got[m].IsZero(), "month %d", m+1)
	}
}

func TestMonthlyTotalsAcrossBrokers_Conservation(t *testing.T) {
	records := sampleRecords()
	for _, year := range []int{2022, 2023, 2024} {
		var monthly MonthTotal
		for _, m := range MonthlyTotalsAcrossBrokers(records, year) {
			monthly = monthly.Add(m)
		}

		var direct MonthTotal
		for _, r := range records {
			ym, ok := r.YearMonth()
			if ok && ym.Year == year {
				direct = direct.Add(MonthTotal{USD: ParseAmount(r.TotalValueInUSD), BRL: ParseAmount(r.TotalValueInBRL)})
			}
		}

		assert.True(t, monthly.Equal(direct), "year %d: %v != %v", year, monthly, direct)
		assert.True(t, YearTotal(records, year).Equal(direct), "year %d", year)
	}
}

func TestBuildTable(t *testing.T) {
	brokers := []Broker{{Name: "XP", Currency: "BRL"}, {Name: "Avenue", Currency: "USD"}, {Name: "Empty", Currency: "USD"}}

	table := BuildTable(brokers, sampleRecords(), 2024)

	assert.Equal(t, 2024, table.Year)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "XP", table.Rows[0].Broker.Name)
	assert.True(t, table.Rows[0].Months[0].Equal(total("200.50", "1000.25")))
	assert.Equal(t, "Avenue", table.Rows[1].Broker.Name)
	assert.True(t, table.Rows[1].Months[1].Equal(total("1100", "5400")))
	for _, cell := range table.Rows[2].Months {
		assert.True(t, cell.IsZero())
	}
	assert.True(t, table.Totals[0].Equal(total("1200.50", "6000.25")))
}

func TestBuildTable_NoBrokers(t *testing.T) {
	table := BuildTable(nil, sampleRecords(), 2024)
	assert.NotNil(t, table.Rows)
	assert.Empty(t, table.Rows)
	assert.False(t, table.Totals[0].IsZero())
}
