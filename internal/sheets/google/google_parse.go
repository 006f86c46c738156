package google

import (
	"fmt"
	"strings"

	"yield/internal/core"
)

const (
	brokerColumns     = "A:C"
	totalValueColumns = "A:F"
)

// brokerRow lays out a broker as ID, Name, Currency.
func brokerRow(b core.Broker) []any {
	return []any{b.ID, b.Name, b.Currency}
}

// totalValueRow lays out a record as ID, Date, Currency, USD, BRL, Broker.
func totalValueRow(r core.TotalValueRecord) []any {
	return []any{r.ID, r.Date, r.Currency, r.TotalValueInUSD, r.TotalValueInBRL, r.Broker.Name}
}

func parseBrokerRows(values [][]any) []core.Broker {
	out := make([]core.Broker, 0, len(values))
	for i, row := range values {
		cols := toStrings(row)
		if i == 0 && isHeader(cols) {
			continue
		}
		b := core.Broker{ID: cell(cols, 0), Name: cell(cols, 1), Currency: cell(cols, 2)}
		if b.Name == "" {
			continue
		}
		out = append(out, b)
	}
	return out
}

// parseTotalValueRows keeps malformed dates and amounts as they are;
// aggregation skips them. Broker currency is taken from the record.
func parseTotalValueRows(values [][]any) []core.TotalValueRecord {
	out := make([]core.TotalValueRecord, 0, len(values))
	for i, row := range values {
		cols := toStrings(row)
		if i == 0 && isHeader(cols) {
			continue
		}
		if cell(cols, 0) == "" && cell(cols, 1) == "" {
			continue
		}
		currency := cell(cols, 2)
		out = append(out, core.TotalValueRecord{
			ID:              cell(cols, 0),
			Date:            cell(cols, 1),
			Currency:        currency,
			TotalValueInUSD: cell(cols, 3),
			TotalValueInBRL: cell(cols, 4),
			Broker:          core.Broker{Name: cell(cols, 5), Currency: currency},
		})
	}
	return out
}

// rowIndexOf returns the 0-based sheet row whose id column equals id, or -1.
func rowIndexOf(values [][]any, id string) int {
	for i, row := range values {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i
		}
	}
	return -1
}

func isHeader(cols []string) bool {
	return strings.EqualFold(cell(cols, 0), "id")
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func cell(cols []string, idx int) string {
	if idx < 0 || idx >= len(cols) {
		return ""
	}
	return cols[idx]
}
