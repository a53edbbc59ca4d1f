package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"budgetdash/internal/dashboard"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyHTML([]byte("<p>test</p>")).
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "<p>test</p>" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "<p>test</p>")
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Errorf("HX-Trigger set without triggers: %q", w.Header().Get("HX-Trigger"))
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerToast(dashboard.Toast{Kind: dashboard.ToastSuccess, Message: "Expense added! 💰"}).
		TriggerModalClose(AddModalID).
		TriggerFormReset(AddFormID).
		Write(w)

	var triggers map[string]map[string]any
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}

	toast := triggers[EventShowNotification]
	if toast["type"] != "success" || toast["message"] != "Expense added! 💰" || toast["duration"] != float64(ToastDuration) {
		t.Errorf("show-notification = %v", toast)
	}
	if triggers[EventModalClose]["id"] != "addModal" {
		t.Errorf("modal:close = %v", triggers[EventModalClose])
	}
	if triggers[EventFormReset]["id"] != "addForm" {
		t.Errorf("form:reset = %v", triggers[EventFormReset])
	}
}

func TestHTMXResponseBuilder_LastToastWins(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerLastToast([]dashboard.Toast{
			{Kind: dashboard.ToastSuccess, Message: "Transaction deleted"},
			{Kind: dashboard.ToastError, Message: "Error loading budget data"},
		}).
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, "Error loading budget data") || strings.Contains(trigger, "Transaction deleted") {
		t.Errorf("HX-Trigger = %s, want only the last toast", trigger)
	}

	w = httptest.NewRecorder()
	NewHTMXResponse().TriggerLastToast(nil).Write(w)
	if w.Header().Get("HX-Trigger") != "" {
		t.Errorf("no toasts should leave HX-Trigger empty")
	}
}

func TestHTMXResponseBuilder_NoSwap(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerErrorNotification("Amount must be greater than 0").
		NoSwap().
		Write(w)

	if w.Header().Get("HX-Reswap") != "none" {
		t.Errorf("HX-Reswap = %q, want none", w.Header().Get("HX-Reswap"))
	}
	if !strings.Contains(w.Header().Get("HX-Trigger"), `"type":"error"`) {
		t.Errorf("HX-Trigger = %s", w.Header().Get("HX-Trigger"))
	}
}

func TestHTMXResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Header("X-Custom", "value").
		Status(http.StatusCreated).
		Write(w)

	if w.Header().Get("X-Custom") != "value" {
		t.Errorf("Custom header not set")
	}
	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bad request",
			builder:    BadRequestError("Invalid input"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="error">Invalid input</div>`,
		},
		{
			name:       "too many requests",
			builder:    TooManyRequestsError("Slow down"),
			wantStatus: http.StatusTooManyRequests,
			wantBody:   `<div class="error">Slow down</div>`,
		},
		{
			name:       "internal server error",
			builder:    InternalServerError("Something broke"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `<div class="error">Something broke</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if w.Header().Get("HX-Reswap") != "none" {
				t.Errorf("error responses must not swap")
			}
		})
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()

	BadRequestError("<script>alert('xss')</script>").Write(w)

	body := w.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("Error response did not escape HTML")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("Error response did not properly escape HTML entities")
	}
}

func TestTooManyRequestsRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	TooManyRequestsError("wait").Write(w)
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
}
