package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"budgetdash/internal/log"
)

func TestHandlerAssignsRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf, Format: "json"})
	m := NewMiddleware(logger, func(*http.Request) string { return "10.0.0.1" })

	var seenID string
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		log.FromContext(r.Context()).InfoContext(r.Context(), "inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ui/dashboard", nil))

	if !strings.HasPrefix(seenID, "req_") || rr.Header().Get(HeaderRequestID) != seenID {
		t.Fatalf("request id = %q, header = %q", seenID, rr.Header().Get(HeaderRequestID))
	}
	out := buf.String()
	if !strings.Contains(out, `"msg":"inside handler"`) || !strings.Contains(out, `"request_id":"`+seenID+`"`) {
		t.Fatalf("handler log missing request id: %s", out)
	}
	if !strings.Contains(out, `"status_code":418`) || !strings.Contains(out, `"level":"WARN"`) {
		t.Fatalf("completion log wrong: %s", out)
	}
}

func TestHandlerHonoursIncomingRequestID(t *testing.T) {
	m := NewMiddleware(nil, nil)
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		incoming string
		keep     bool
	}{
		{"abcdef12-3456", true},
		{"short", false},
		{"bad id with spaces", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, tt.incoming)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if got := rr.Header().Get(HeaderRequestID); (got == tt.incoming) != tt.keep {
			t.Errorf("incoming %q -> %q, keep=%v", tt.incoming, got, tt.keep)
		}
	}
}

func TestMetrics(t *testing.T) {
	m := NewMiddleware(nil, nil)
	status := http.StatusOK
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	for _, s := range []int{200, 404, 500, 502} {
		status = s
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	got := m.Metrics()
	if got.TotalRequests != 4 || got.ClientErrors != 1 || got.ServerErrors != 2 || got.InFlight != 0 {
		t.Fatalf("metrics = %+v", got)
	}
}
