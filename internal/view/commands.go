package view

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"yield/internal/core"
	applog "yield/internal/log"
	"yield/internal/ports"
)

// TotalValueService is the remote side of the total value commands.
type TotalValueService interface {
	ports.TotalValueWriter
	ports.TotalValueDeleter
}

// Outcome describes what a successful command changed in the view.
type Outcome struct {
	Message     string  `json:"message"`
	Close       []Panel `json:"close,omitempty"`
	ResetSearch bool    `json:"resetSearch,omitempty"`
	Refresh     uint64  `json:"refresh"`
}

// TotalValueInput is the add-total-value form.
type TotalValueInput struct {
	Date   string
	USD    string
	BRL    string
	Broker core.Broker
}

// Commands validates user input, calls the services and requests a
// refresh after every successful mutation.
type Commands struct {
	brokers ports.BrokerWriter
	values  TotalValueService
	refresh Refresher
	logger  *slog.Logger
}

func NewCommands(brokers ports.BrokerWriter, values TotalValueService, refresh Refresher, logger *slog.Logger) *Commands {
	if logger == nil {
		logger = slog.Default()
	}
	return &Commands{
		brokers: brokers,
		values:  values,
		refresh: refresh,
		logger:  logger.With(applog.FieldComponent, applog.ComponentView),
	}
}

const MsgBrokerAdded = "Broker added successfully"

// AddBroker creates a broker. Blank name or currency fail before the
// service is called.
func (c *Commands) AddBroker(ctx context.Context, name, currency string) (core.Broker, Outcome, error) {
	b := core.Broker{Name: strings.TrimSpace(name), Currency: strings.TrimSpace(currency)}
	if b.Name == "" {
		return core.Broker{}, Outcome{}, core.NewValidationError("name", "broker name is required", core.ErrEmptyBrokerName)
	}
	if b.Currency == "" {
		return core.Broker{}, Outcome{}, core.NewValidationError("currency", "currency is required", core.ErrEmptyCurrency)
	}

	created, err := c.brokers.AddBroker(ctx, b)
	if err != nil {
		c.logger.ErrorContext(ctx, "Add broker failed", "broker", b.Name, "error", err)
		return core.Broker{}, Outcome{}, core.NewServiceError("add broker", "Error adding broker", err)
	}

	out := Outcome{
		Message: MsgBrokerAdded,
		Close:   []Panel{PanelAddBroker},
		Refresh: c.refresh.RequestRefresh(),
	}
	c.logger.InfoContext(ctx, "Broker added", "broker", created.Name, "currency", created.Currency)
	return created, out, nil
}

// AddTotalValue records a broker's monthly totals. The record takes the
// broker's currency.
func (c *Commands) AddTotalValue(ctx context.Context, in TotalValueInput) (Outcome, error) {
	rec, err := in.record()
	if err != nil {
		return Outcome{}, err
	}

	msg, err := c.values.AddTotalValue(ctx, rec)
	if err != nil {
		fields := applog.NewFields().
			WithTotalValue(rec.Broker.Name, rec.Date, rec.TotalValueInUSD, rec.TotalValueInBRL).
			WithError(err)
		c.logger.ErrorContext(ctx, "Add total value failed", fields.ToSlice()...)
		return Outcome{}, core.NewServiceError("add total value", "Error adding total value", err)
	}

	out := Outcome{
		Message: msg,
		Close:   []Panel{PanelAddTotalValue, PanelAddBroker},
		Refresh: c.refresh.RequestRefresh(),
	}
	c.logger.InfoContext(ctx, "Total value added",
		applog.NewFields().WithTotalValue(rec.Broker.Name, rec.Date, rec.TotalValueInUSD, rec.TotalValueInBRL).ToSlice()...)
	return out, nil
}

// DeleteTotalValue deletes rec. A nil record or one without id fails
// before the service is called.
func (c *Commands) DeleteTotalValue(ctx context.Context, rec *core.TotalValueRecord) (Outcome, error) {
	if rec == nil || strings.TrimSpace(rec.ID) == "" {
		return Outcome{}, core.NewValidationError("id", "a record with an id is required", core.ErrMissingID)
	}

	msg, err := c.values.DeleteTotalValue(ctx, rec.ID)
	if err != nil {
		c.logger.ErrorContext(ctx, "Delete total value failed", "record_id", rec.ID, "error", err)
		return Outcome{}, core.NewServiceError("delete total value", "Error deleting total value", err)
	}

	out := Outcome{
		Message:     msg,
		Close:       []Panel{PanelSearch},
		ResetSearch: true,
		Refresh:     c.refresh.RequestRefresh(),
	}
	c.logger.InfoContext(ctx, "Total value deleted", "record_id", rec.ID, "broker", rec.Broker.Name)
	return out, nil
}

func (in TotalValueInput) record() (core.TotalValueRecord, error) {
	rec := core.TotalValueRecord{
		Date:            strings.TrimSpace(in.Date),
		Currency:        strings.TrimSpace(in.Broker.Currency),
		TotalValueInUSD: strings.TrimSpace(in.USD),
		TotalValueInBRL: strings.TrimSpace(in.BRL),
		Broker:          in.Broker,
	}
	switch {
	case rec.Date == "":
		return rec, core.NewValidationError("date", "date is required", core.ErrInvalidDate)
	case rec.TotalValueInUSD == "":
		return rec, core.NewValidationError("totalValueInUSD", "USD total is required", core.ErrInvalidAmount)
	case rec.TotalValueInBRL == "":
		return rec, core.NewValidationError("totalValueInBRL", "BRL total is required", core.ErrInvalidAmount)
	case strings.TrimSpace(rec.Broker.Name) == "":
		return rec, core.NewValidationError("broker", "select a broker", core.ErrMissingBroker)
	}

	if _, err := time.Parse(core.DateLayout, rec.Date); err != nil {
		return rec, core.NewValidationError("date", "date must be YYYY-MM-DD", core.ErrInvalidDate)
	}
	if _, err := core.ParseStrictAmount(rec.TotalValueInUSD); err != nil {
		return rec, core.NewValidationError("totalValueInUSD", "USD total must be a non-negative number", err)
	}
	if _, err := core.ParseStrictAmount(rec.TotalValueInBRL); err != nil {
		return rec, core.NewValidationError("totalValueInBRL", "BRL total must be a non-negative number", err)
	}
	return rec, nil
}
