package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"yield/internal/view"
)

// TriggerHeader carries client-side events as a JSON object keyed by
// event name.
const TriggerHeader = "X-Trigger"

// Trigger event names.
const (
	EventRefresh      = "refresh"
	EventNotification = "notification"
	EventPanelClose   = "panel:close"
	EventSearchReset  = "search:reset"
)

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// ResponseBuilder assembles a JSON response and its trigger header.
type ResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       any
	headers    map[string]string
}

func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Trigger(name string, data any) *ResponseBuilder {
	b.triggers[name] = data
	return b
}

func (b *ResponseBuilder) TriggerRefresh(version uint64) *ResponseBuilder {
	return b.Trigger(EventRefresh, map[string]uint64{"version": version})
}

func (b *ResponseBuilder) TriggerNotification(t NotificationType, message string, durationMs int) *ResponseBuilder {
	return b.Trigger(EventNotification, map[string]any{
		"type":     string(t),
		"message":  message,
		"duration": durationMs,
	})
}

func (b *ResponseBuilder) TriggerSuccessNotification(message string) *ResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

func (b *ResponseBuilder) TriggerErrorNotification(message string) *ResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

// Outcome turns a command outcome into refresh, notification, panel and
// search triggers.
func (b *ResponseBuilder) Outcome(out view.Outcome) *ResponseBuilder {
	b.TriggerRefresh(out.Refresh)
	if out.Message != "" {
		b.TriggerSuccessNotification(out.Message)
	}
	if len(out.Close) > 0 {
		b.Trigger(EventPanelClose, out.Close)
	}
	if out.ResetSearch {
		b.Trigger(EventSearchReset, struct{}{})
	}
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if len(b.triggers) > 0 {
		if triggers, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set(TriggerHeader, string(triggers))
		}
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode response body", "error", err)
	}
}

// ErrorBody is the JSON error payload.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ErrorResponse is a JSON error that also raises an error notification.
func ErrorResponse(statusCode int, message, field string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		TriggerErrorNotification(message).
		JSON(ErrorBody{Error: message, Field: field})
}
