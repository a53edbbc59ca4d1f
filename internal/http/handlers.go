package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"budgetdash/internal/dashboard"
	"budgetdash/internal/log"
	"budgetdash/internal/render"
)

// viewData is what index.html and the dashboard partial execute against.
type viewData struct {
	render.Page
	DeletePrompt string
	// Toast is shown on a full page load; partials use HX-Trigger instead.
	Toast *dashboard.Toast
}

// actionResponse is the body answered to non-htmx callers of the action endpoints.
type actionResponse struct {
	OK        bool          `json:"ok"`
	Requested bool          `json:"requested"`
	Toasts    []toastResult `json:"toasts"`
}

type toastResult struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady checks that templates are loaded and the budget API answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.api.Ping(ctx); err != nil {
		checks["budget_api"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["budget_api"] = "ok"
	}

	checks["sessions"] = map[string]any{
		"active": s.sessions.Size(),
		"status": "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.Metrics()
	sessionHits, sessionMisses := s.sessions.cache.Stats()
	uptime := time.Since(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_requests_in_flight Requests currently being served\n")
	fmt.Fprintf(w, "# TYPE http_requests_in_flight gauge\n")
	fmt.Fprintf(w, "http_requests_in_flight %d\n\n", traceMetrics.InFlight)

	fmt.Fprintf(w, "# HELP http_responses_errors_total Error responses by class\n")
	fmt.Fprintf(w, "# TYPE http_responses_errors_total counter\n")
	fmt.Fprintf(w, "http_responses_errors_total{class=\"4xx\"} %d\n", traceMetrics.ClientErrors)
	fmt.Fprintf(w, "http_responses_errors_total{class=\"5xx\"} %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP http_request_duration_average_seconds Average request latency\n")
	fmt.Fprintf(w, "# TYPE http_request_duration_average_seconds gauge\n")
	fmt.Fprintf(w, "http_request_duration_average_seconds %.6f\n\n", traceMetrics.AverageLatency.Seconds())

	fmt.Fprintf(w, "# HELP dashboard_page_loads_total Full dashboard page loads\n")
	fmt.Fprintf(w, "# TYPE dashboard_page_loads_total counter\n")
	fmt.Fprintf(w, "dashboard_page_loads_total %d\n\n", s.appMetrics.pageLoads.Load())

	fmt.Fprintf(w, "# HELP dashboard_actions_total User actions by outcome\n")
	fmt.Fprintf(w, "# TYPE dashboard_actions_total counter\n")
	actions := s.appMetrics.actions.Load()
	fails := s.appMetrics.actionFails.Load()
	rejected := s.appMetrics.rejected.Load()
	fmt.Fprintf(w, "dashboard_actions_total{outcome=\"ok\"} %d\n", actions-fails-rejected)
	fmt.Fprintf(w, "dashboard_actions_total{outcome=\"failed\"} %d\n", fails)
	fmt.Fprintf(w, "dashboard_actions_total{outcome=\"rejected\"} %d\n\n", rejected)

	fmt.Fprintf(w, "# HELP dashboard_sessions Current dashboard sessions\n")
	fmt.Fprintf(w, "# TYPE dashboard_sessions gauge\n")
	fmt.Fprintf(w, "dashboard_sessions %d\n\n", s.sessions.Size())

	fmt.Fprintf(w, "# HELP cache_hits_total Total cache hits\n")
	fmt.Fprintf(w, "# TYPE cache_hits_total counter\n")
	fmt.Fprintf(w, "cache_hits_total{cache=\"sessions\"} %d\n\n", sessionHits)

	fmt.Fprintf(w, "# HELP cache_misses_total Total cache misses\n")
	fmt.Fprintf(w, "# TYPE cache_misses_total counter\n")
	fmt.Fprintf(w, "cache_misses_total{cache=\"sessions\"} %d\n\n", sessionMisses)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", s.rateLimiter.Hits())

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", s.securityDetector.SuspiciousRequests())

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", s.rateLimiter.ActiveClients())

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", uptime.Seconds())
}

// handleIndex opens a new dashboard for the browser and renders the full page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	if s.templates == nil {
		logger.ErrorContext(ctx, "Templates not loaded",
			log.FieldComponent, log.ComponentTemplate,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	sess := s.sessions.open(w, r)
	toasts := sess.ctrl.Load(ctx)
	s.appMetrics.pageLoads.Add(1)

	data := s.viewData(sess)
	if len(toasts) > 0 {
		last := toasts[len(toasts)-1]
		data.Toast = &last
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		logger.ErrorContext(ctx, "Index template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// handleDashboard switches the month and re-renders the dashboard partial.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, toasts, fresh := s.sessions.resume(ctx, w, r)

	month := ParseMonth(r.URL.Query(), sess.ctrl.Month())
	if !fresh || month != sess.ctrl.Month() {
		toasts = append(toasts, sess.ctrl.SetMonth(ctx, month)...)
	}

	s.writeDashboard(w, r, sess, NewHTMXResponse().TriggerLastToast(toasts))
}

// handleCharts returns the chart data the browser should be drawing.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	sess, _, fresh := s.sessions.resume(r.Context(), w, r)
	if fresh {
		snap := sess.ctrl.Snapshot()
		writeJSON(w, http.StatusOK, sess.charts.Update(snap.Budget, snap.Trends))
		return
	}
	writeJSON(w, http.StatusOK, sess.charts.Current())
}

// handleCategories renders the content of the all-categories modal.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _, _ := s.sessions.resume(ctx, w, r)
	rows := render.BuildCategoryModal(sess.ctrl.Snapshot().Budget.AllCategories)

	body, err := s.execute("category_list", rows)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Category list render failed", log.FieldError, err)
		InternalServerError("Error loading categories").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

func (s *Server) handleSetIncome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, toasts, _ := s.sessions.resume(ctx, w, r)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Invalid income request", log.FieldError, err)
		BadRequestError("Invalid request").Write(w)
		return
	}

	res := sess.ctrl.SetIncome(ctx, p.Amount("income"))
	res.Toasts = append(toasts, res.Toasts...)
	s.respondAction(w, r, sess, res)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, toasts, _ := s.sessions.resume(ctx, w, r)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Invalid transaction request", log.FieldError, err)
		BadRequestError("Invalid request").Write(w)
		return
	}

	res := sess.ctrl.AddTransaction(ctx, p.NewTransaction())
	res.Toasts = append(toasts, res.Toasts...)
	s.respondAction(w, r, sess, res)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseTransactionID(r)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Invalid delete request", log.FieldError, err)
		BadRequestError("Invalid transaction id").Write(w)
		return
	}

	sess, toasts, _ := s.sessions.resume(ctx, w, r)
	res := sess.ctrl.DeleteTransaction(ctx, id, confirmFromRequest(r))
	res.Toasts = append(toasts, res.Toasts...)
	s.respondAction(w, r, sess, res)
}

// respondAction turns an action outcome into triggers. Successful writes swap
// in the refreshed dashboard; anything else leaves the page as it is.
func (s *Server) respondAction(w http.ResponseWriter, r *http.Request, sess *session, res dashboard.ActionResult) {
	s.appMetrics.actions.Add(1)
	switch {
	case !res.Requested:
		s.appMetrics.rejected.Add(1)
	case !res.OK:
		s.appMetrics.actionFails.Add(1)
	}

	if !isHTMX(r) {
		s.writeActionJSON(w, res)
		return
	}

	b := NewHTMXResponse().TriggerLastToast(res.Toasts)
	switch res.CloseModal {
	case dashboard.ModalIncome:
		b.TriggerModalClose(IncomeModalID)
	case dashboard.ModalAdd:
		b.TriggerModalClose(AddModalID)
	}
	if res.ResetForm {
		b.TriggerFormReset(AddFormID)
	}

	if !res.OK {
		b.NoSwap().Write(w)
		return
	}
	s.writeDashboard(w, r, sess, b)
}

func (s *Server) writeActionJSON(w http.ResponseWriter, res dashboard.ActionResult) {
	body := actionResponse{OK: res.OK, Requested: res.Requested, Toasts: make([]toastResult, 0, len(res.Toasts))}
	for _, t := range res.Toasts {
		body.Toasts = append(body.Toasts, toastResult{Type: string(t.Kind), Message: t.Message})
	}

	status := http.StatusOK
	switch {
	case res.OK:
	case !res.Requested && len(res.Toasts) == 0:
		status = http.StatusPreconditionRequired
	case !res.Requested:
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, body)
}

// writeDashboard renders the dashboard partial followed by the out-of-band
// chart data element.
func (s *Server) writeDashboard(w http.ResponseWriter, r *http.Request, sess *session, b *HTMXResponseBuilder) {
	ctx := r.Context()
	data := s.viewData(sess)

	var buf bytes.Buffer
	for _, name := range []string{"dashboard", "chart_data"} {
		part, err := s.execute(name, data)
		if err != nil {
			log.FromContext(ctx).ErrorContext(ctx, "Dashboard render failed",
				log.FieldError, err,
				log.FieldOperation, log.OpRender,
				"template", name)
			InternalServerError("Error rendering dashboard").Write(w)
			return
		}
		buf.Write(part)
	}
	b.BodyHTML(buf.Bytes()).Write(w)
}

// viewData snapshots the session and brings its charts up to date.
func (s *Server) viewData(sess *session) viewData {
	snap := sess.ctrl.Snapshot()
	charts := sess.charts.Update(snap.Budget, snap.Trends)
	return viewData{
		Page:         render.BuildPage(snap, sess.ctrl.Today(), charts),
		DeletePrompt: dashboard.DeletePrompt,
	}
}

func (s *Server) execute(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, fmt.Errorf("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
