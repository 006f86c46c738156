package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"yield/internal/backend"
	"yield/internal/core"
	applog "yield/internal/log"
	"yield/internal/view"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady pings the backend when it supports it.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.backend.(backend.Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleView renders the full view model. Query parameters replay the
// client state: year, open panels, the selected broker and search filters.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := parseYear(q, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	month, err := parseMonth(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess := s.newSession(snap)
	sess.SelectYear(year)
	for _, p := range q["panel"] {
		sess.Open(view.Panel(p))
	}
	if b := sanitizeInput(q.Get("selectBroker")); b != "" {
		sess.SelectBroker(b)
	}
	sess.SetSearch(sanitizeInput(q.Get("broker")), month)

	NewResponse().JSON(sess.Model(s.now())).Write(w)
}

// TableResponse is the monthly table of a year with its grand total.
type TableResponse struct {
	Table       core.Table      `json:"table"`
	YearTotal   core.MonthTotal `json:"yearTotal"`
	MonthLabels []string        `json:"monthLabels"`
	Years       []int           `json:"years"`
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(TableResponse{
		Table:       snap.Table(year),
		YearTotal:   core.YearTotal(snap.Records(), year),
		MonthLabels: core.MonthLabels[:],
		Years:       snap.Years(s.now().Year()),
	}).Write(w)
}

// SearchResponse lists the filter choices for a year and, once both a
// broker and a month are chosen, the matching records.
type SearchResponse struct {
	Search  view.Search             `json:"search"`
	Options view.SearchOptions      `json:"options"`
	Results []core.TotalValueRecord `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := parseYear(q, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	month, err := parseMonth(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	search := view.Search{Year: year, Broker: sanitizeInput(q.Get("broker")), Month: month}
	records := snap.Records()
	NewResponse().JSON(SearchResponse{
		Search:  search,
		Options: search.Options(records),
		Results: search.Results(records),
	}).Write(w)
}

func (s *Server) handleListBrokers(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	brokers := snap.Brokers()
	if brokers == nil {
		brokers = []core.Broker{}
	}
	NewResponse().JSON(brokers).Write(w)
}

// AddBrokerRequest is the body of POST /api/brokers.
type AddBrokerRequest struct {
	Name     string `json:"broker"`
	Currency string `json:"currency"`
}

func (s *Server) handleAddBroker(w http.ResponseWriter, r *http.Request) {
	var req AddBrokerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, out, err := s.commands.AddBroker(r.Context(), sanitizeInput(req.Name), sanitizeInput(req.Currency))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).Outcome(out).JSON(created).Write(w)
}

func (s *Server) handleListTotalValues(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	records := snap.Records()
	if records == nil {
		records = []core.TotalValueRecord{}
	}
	NewResponse().JSON(records).Write(w)
}

// AddTotalValueRequest is the body of POST /api/total-values. Broker is
// a broker name.
type AddTotalValueRequest struct {
	Date            string `json:"date"`
	TotalValueInUSD string `json:"totalValueInUSD"`
	TotalValueInBRL string `json:"totalValueInBRL"`
	Broker          string `json:"broker"`
}

// AddTotalValueResponse carries the service message.
type AddTotalValueResponse struct {
	Msg string `json:"msg"`
}

// handleAddTotalValue resolves the broker against the current snapshot;
// an unknown broker name fails validation like a missing one.
func (s *Server) handleAddTotalValue(w http.ResponseWriter, r *http.Request) {
	var req AddTotalValueRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess := s.newSession(snap)
	sess.Open(view.PanelAddTotalValue)
	sess.SelectBroker(sanitizeInput(req.Broker))
	out, err := sess.AddTotalValue(r.Context(),
		sanitizeInput(req.Date), sanitizeInput(req.TotalValueInUSD), sanitizeInput(req.TotalValueInBRL))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).Outcome(out).JSON(AddTotalValueResponse{Msg: out.Message}).Write(w)
}

// DeleteTotalValueResponse carries the service message.
type DeleteTotalValueResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleDeleteTotalValue(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	snap, err := s.snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess := s.newSession(snap)
	sess.Open(view.PanelSearch)
	out, err := sess.DeleteTotalValue(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().Outcome(out).JSON(DeleteTotalValueResponse{Message: out.Message}).Write(w)
}

// writeError maps err to a status: 400 malformed request, 422 invalid
// input, 404 unknown record, 409 duplicate broker, 502 rejected service
// call, 500 anything else.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message, field := classify(err)
	fields := applog.NewFields().
		WithError(err).
		WithErrorType(errorType(status)).
		WithOperation(r.Method + " " + r.URL.Path).
		WithRequestID(applog.RequestID(r.Context()))
	fields[applog.FieldStatusCode] = status
	s.logger.Log(r.Context(), levelFor(status), "Request failed", fields.ToSlice()...)
	ErrorResponse(status, message, field).Write(w)
}

func classify(err error) (status int, message, field string) {
	var (
		ve *core.ValidationError
		se *core.ServiceError
	)
	message = "internal error"
	if errors.As(err, &se) {
		message = se.Message
	}

	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, err.Error(), ""
	case errors.As(err, &ve):
		if se == nil {
			message = ve.Message
		}
		return http.StatusUnprocessableEntity, message, ve.Field
	case errors.Is(err, core.ErrNotFound):
		if se == nil {
			message = "total value not found"
		}
		return http.StatusNotFound, message, ""
	case errors.Is(err, core.ErrDuplicateBroker):
		if se == nil {
			message = "broker already exists"
		}
		return http.StatusConflict, message, ""
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "backend timed out", ""
	case se != nil:
		return http.StatusBadGateway, message, ""
	}
	return http.StatusInternalServerError, message, ""
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return applog.ErrorTypeValidation
	case http.StatusNotFound:
		return applog.ErrorTypeNotFound
	case http.StatusConflict:
		return applog.ErrorTypeConflict
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return applog.ErrorTypeService
	}
	return applog.ErrorTypeInternal
}
