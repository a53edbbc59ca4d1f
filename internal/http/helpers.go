package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"budgetdash/internal/dashboard"
)

// HeaderConfirmed is set by the page on requests the user confirmed through
// an hx-confirm dialog.
const HeaderConfirmed = "X-Confirmed"

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// parseTransactionID reads the {id} path segment.
func parseTransactionID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid transaction id %q", raw)
	}
	return id, nil
}

// confirmFromRequest answers the delete prompt with what the browser already
// asked the user.
func confirmFromRequest(r *http.Request) dashboard.Confirmer {
	return dashboard.ConfirmFunc(func(string) bool {
		return strings.EqualFold(r.Header.Get(HeaderConfirmed), "true")
	})
}

// isHTMX reports whether r was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// templateFuncs are available to every template.
var templateFuncs = template.FuncMap{
	// json renders v for a data attribute; html/template escapes the result.
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	},
}
