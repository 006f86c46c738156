package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of TotalValueRecord.Date.
const DateLayout = "2006-01-02"

type (
	Broker struct {
		ID       string `json:"id,omitempty"`
		Name     string `json:"broker"`
		Currency string `json:"currency"`
	}

	// TotalValueRecord is a snapshot of a broker's holdings on a given date.
	// Amounts stay as the decimal strings the service stores; ParseAmount
	// converts them when aggregating.
	TotalValueRecord struct {
		ID              string `json:"_id,omitempty"`
		Date            string `json:"date"`
		Currency        string `json:"currency"`
		TotalValueInUSD string `json:"totalValueInUSD"`
		TotalValueInBRL string `json:"totalValueInBRL"`
		Broker          Broker `json:"broker"`
	}

	// YearMonth is the decomposed form of a record date.
	YearMonth struct {
		Year  int
		Month int // 1-12
	}
)

var (
	ErrEmptyBrokerName = errors.New("empty broker name")
	ErrEmptyCurrency   = errors.New("empty currency")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrMissingBroker   = errors.New("missing broker")
	ErrNotFound        = errors.New("not found")
	ErrDuplicateBroker = errors.New("broker already exists")
	ErrMissingID       = errors.New("missing id")
)

// ParseYearMonth splits "YYYY-MM[-DD]" into its year and month.
// It reports false for anything it cannot read, including months outside 1-12.
func ParseYearMonth(date string) (YearMonth, bool) {
	parts := strings.SplitN(strings.TrimSpace(date), "-", 3)
	if len(parts) < 2 {
		return YearMonth{}, false
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil || y < 1 {
		return YearMonth{}, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return YearMonth{}, false
	}
	return YearMonth{Year: y, Month: m}, true
}

// String returns the key form "YYYY-MM".
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// YearMonth decomposes the record date.
func (r TotalValueRecord) YearMonth() (YearMonth, bool) {
	return ParseYearMonth(r.Date)
}

func (b Broker) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyBrokerName
	}
	if strings.TrimSpace(b.Currency) == "" {
		return ErrEmptyCurrency
	}
	return nil
}

// Validate checks a record before it is sent to a service. Stored records
// are never validated on read: aggregation skips what it cannot parse.
func (r TotalValueRecord) Validate() error {
	if _, err := time.Parse(DateLayout, strings.TrimSpace(r.Date)); err != nil {
		return ErrInvalidDate
	}
	if _, err := ParseStrictAmount(r.TotalValueInUSD); err != nil {
		return fmt.Errorf("usd: %w", err)
	}
	if _, err := ParseStrictAmount(r.TotalValueInBRL); err != nil {
		return fmt.Errorf("brl: %w", err)
	}
	if strings.TrimSpace(r.Broker.Name) == "" {
		return ErrMissingBroker
	}
	return nil
}
