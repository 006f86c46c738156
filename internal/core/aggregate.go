package core

// MonthsPerYear is the column count of the monthly table.
const MonthsPerYear = 12

// MonthLabels are the table column headers.
var MonthLabels = [MonthsPerYear]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

type (
	// BrokerRow is one broker's twelve monthly cells.
	BrokerRow struct {
		Broker Broker                    `json:"broker"`
		Months [MonthsPerYear]MonthTotal `json:"months"`
	}

	// Table is the monthly totals table for a year.
	Table struct {
		Year   int                       `json:"year"`
		Rows   []BrokerRow               `json:"rows"`
		Totals [MonthsPerYear]MonthTotal `json:"totals"`
	}

	// DuplicateKey identifies a (broker, year, month) cell fed by more than
	// one record.
	DuplicateKey struct {
		Broker    string
		YearMonth YearMonth
		Count     int
	}
)

// MonthlyTotalFor returns the amounts of the first record matching broker,
// month and year. monthIndex is 0-based (0 is January). Records with a
// malformed date never match; zero is returned when nothing matches.
func MonthlyTotalFor(records []TotalValueRecord, brokerName string, monthIndex, year int) MonthTotal {
	if monthIndex < 0 || monthIndex >= MonthsPerYear {
		return MonthTotal{}
	}
	for _, r := range records {
		ym, ok := r.YearMonth()
		if !ok {
			continue
		}
		if r.Broker.Name == brokerName && ym.Month == monthIndex+1 && ym.Year == year {
			return recordTotal(r)
		}
	}
	return MonthTotal{}
}

// MonthlyTotalsAcrossBrokers sums every record of the year into its month,
// regardless of broker.
func MonthlyTotalsAcrossBrokers(records []TotalValueRecord, year int) [MonthsPerYear]MonthTotal {
	var out [MonthsPerYear]MonthTotal
	for _, r := range records {
		ym, ok := r.YearMonth()
		if !ok || ym.Year != year {
			continue
		}
		out[ym.Month-1] = out[ym.Month-1].Add(recordTotal(r))
	}
	return out
}

// YearTotal sums every record of the year.
func YearTotal(records []TotalValueRecord, year int) MonthTotal {
	var total MonthTotal
	for _, m := range MonthlyTotalsAcrossBrokers(records, year) {
		total = total.Add(m)
	}
	return total
}

// BuildTable computes the monthly table: one row per broker in the given
// order, plus the across-brokers totals.
func BuildTable(brokers []Broker, records []TotalValueRecord, year int) Table {
	t := Table{
		Year:   year,
		Rows:   make([]BrokerRow, 0, len(brokers)),
		Totals: MonthlyTotalsAcrossBrokers(records, year),
	}
	for _, b := range brokers {
		row := BrokerRow{Broker: b}
		for m := 0; m < MonthsPerYear; m++ {
			row.Months[m] = MonthlyTotalFor(records, b.Name, m, year)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Duplicates lists the (broker, year, month) cells of the year that more
// than one record maps to. MonthlyTotalFor shows only the first of them.
func Duplicates(records []TotalValueRecord, year int) []DuplicateKey {
	type key struct {
		broker string
		ym     YearMonth
	}
	counts := map[key]int{}
	var order []key
	for _, r := range records {
		ym, ok := r.YearMonth()
		if !ok || ym.Year != year {
			continue
		}
		k := key{broker: r.Broker.Name, ym: ym}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	var out []DuplicateKey
	for _, k := range order {
		if counts[k] > 1 {
			out = append(out, DuplicateKey{Broker: k.broker, YearMonth: k.ym, Count: counts[k]})
		}
	}
	return out
}

func recordTotal(r TotalValueRecord) MonthTotal {
	return MonthTotal{USD: ParseAmount(r.TotalValueInUSD), BRL: ParseAmount(r.TotalValueInBRL)}
}
