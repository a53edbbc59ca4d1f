// Package http serves the dashboard page, its htmx partials and the action
// endpoints.
//
// This file implements the Builder Pattern for constructing HTMX responses.
// It provides a fluent API for building HX-Trigger headers so every handler
// reports toasts and modal changes the same way.

package http

import (
	"encoding/json"
	"html/template"
	"net/http"

	"budgetdash/internal/dashboard"
)

// ToastDuration is how long the browser shows a notification, in milliseconds.
const ToastDuration = 3000

// Client-side events raised through HX-Trigger.
const (
	EventShowNotification = "show-notification"
	EventModalClose       = "modal:close"
	EventFormReset        = "form:reset"
)

// DOM ids of the dialogs and forms the triggers refer to.
const (
	IncomeModalID = "incomeModal"
	AddModalID    = "addModal"
	AddFormID     = "addForm"
)

// HTMXResponseBuilder provides a fluent API for building HTMX responses.
// It encapsulates the construction of HX-Trigger headers and response bodies.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
// A second trigger with the same name replaces the first.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerNotification adds a show-notification trigger.
func (b *HTMXResponseBuilder) TriggerNotification(kind dashboard.ToastKind, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(EventShowNotification, map[string]any{
		"type":     string(kind),
		"message":  message,
		"duration": durationMs,
	})
}

// TriggerToast shows t for ToastDuration.
func (b *HTMXResponseBuilder) TriggerToast(t dashboard.Toast) *HTMXResponseBuilder {
	return b.TriggerNotification(t.Kind, t.Message, ToastDuration)
}

// TriggerLastToast shows the toast an action left on screen, if any.
func (b *HTMXResponseBuilder) TriggerLastToast(toasts []dashboard.Toast) *HTMXResponseBuilder {
	if len(toasts) == 0 {
		return b
	}
	return b.TriggerToast(toasts[len(toasts)-1])
}

// TriggerErrorNotification is a convenience method for error notifications.
func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(dashboard.ToastError, message, ToastDuration)
}

// TriggerModalClose asks the page to hide the dialog with the given DOM id.
func (b *HTMXResponseBuilder) TriggerModalClose(id string) *HTMXResponseBuilder {
	return b.Trigger(EventModalClose, map[string]string{"id": id})
}

// TriggerFormReset asks the page to clear the form with the given DOM id.
func (b *HTMXResponseBuilder) TriggerFormReset(id string) *HTMXResponseBuilder {
	return b.Trigger(EventFormReset, map[string]string{"id": id})
}

// NoSwap keeps the current page content; only triggers are processed.
func (b *HTMXResponseBuilder) NoSwap() *HTMXResponseBuilder {
	return b.Header("HX-Reswap", "none")
}

// Header adds a custom header to the response.
func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *HTMXResponseBuilder) BodyHTML(html []byte) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = html
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		triggerJSON, err := json.Marshal(b.triggers)
		if err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse creates a standard error response with HTML formatting.
// The message is HTML-escaped and repeated as a toast.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	escapedMsg := template.HTMLEscapeString(message)
	return NewHTMXResponse().
		Status(statusCode).
		TriggerErrorNotification(message).
		NoSwap().
		BodyHTML([]byte(`<div class="error">` + escapedMsg + `</div>`))
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// TooManyRequestsError creates a 429 response asking the client to wait a minute.
func TooManyRequestsError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, message).Header("Retry-After", "60")
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}
