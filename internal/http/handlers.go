package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"datalens/internal/core"
	"datalens/internal/log"
	"datalens/internal/session"
	"datalens/internal/view"
)

const maxFormBytes = 64 << 10

// uiMetrics counts view events across all sessions.
type uiMetrics struct {
	sessionsCreated     int64
	transactionsCreated int64
	inputsRejected      int64
	backendFailures     int64
	started             time.Time
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleReady reports whether the ledger backend answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"ledger": "ok"}
	if err := s.ready(ctx); err != nil {
		status, code = "not_ready", http.StatusServiceUnavailable
		checks["ledger"] = "failed: " + err.Error()
		s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"checks":    checks,
		"sessions":  s.sessions.Len(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleMetrics writes counters in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	rl := s.limiter.GetMetrics()
	sec := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
	}
	gauge := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %d\n\n", name, help, name, name, v)
	}

	counter("http_requests_total", "Total number of HTTP requests", tm.TotalRequests)
	counter("http_server_errors_total", "Responses with a 5xx status", tm.ServerErrors)
	gauge("http_response_time_avg_ms", "Average response time in milliseconds", tm.AverageResponseTime.Milliseconds())
	counter("sessions_created_total", "Browser sessions created", atomic.LoadInt64(&s.metrics.sessionsCreated))
	gauge("sessions_active", "Live browser sessions", int64(s.sessions.Len()))
	counter("transactions_created_total", "Transactions accepted by the ledger", atomic.LoadInt64(&s.metrics.transactionsCreated))
	counter("transaction_inputs_rejected_total", "Submissions rejected by validation", atomic.LoadInt64(&s.metrics.inputsRejected))
	counter("ledger_failures_total", "Failed ledger requests", atomic.LoadInt64(&s.metrics.backendFailures))
	counter("rate_limit_hits_total", "Requests rejected by the rate limiter", rl.TotalHits)
	gauge("active_rate_limit_clients", "Currently tracked rate limit clients", rl.ClientCount)
	counter("suspicious_requests_total", "Suspicious requests detected", sec.SuspiciousRequests)
	gauge("uptime_seconds", "Application uptime in seconds", int64(time.Since(s.metrics.started).Seconds()))
}

// session resolves the caller's view, creating and mounting a new one when
// the cookie is missing, unknown or expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *view.View {
	var id string
	if c, err := r.Cookie(session.CookieName); err == nil {
		id = c.Value
	}

	sid, v, created := s.sessions.GetOrCreate(id)
	if created {
		atomic.AddInt64(&s.metrics.sessionsCreated, 1)
		v.Mount(r.Context())
		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    sid,
			Path:     "/",
			MaxAge:   int(s.cookieTTL.Seconds()),
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return v
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	v := s.session(w, r)
	s.render(w, r, "index.html", NewHTMXResponse(), v)
}

// handleView returns the view partial. The loading placeholder polls it.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	v := s.session(w, r)
	s.render(w, r, "view", NewHTMXResponse(), v)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	v := s.session(w, r)

	form, err := ParseForm(w, r, maxFormBytes)
	if err != nil {
		BadRequestError("Invalid request").Write(w)
		return
	}

	v.SetDescription(form.Description)
	v.SetAmount(form.Amount)

	// the ledger call finishes even if the browser goes away; the view
	// drops the result if the session was torn down meanwhile
	err = v.Submit(context.WithoutCancel(r.Context()))

	resp := NewHTMXResponse()
	var verr *core.ValidationError
	switch {
	case err == nil:
		atomic.AddInt64(&s.metrics.transactionsCreated, 1)
		resp.TriggerTransactionCreated().TriggerFormReset()
	case errors.As(err, &verr):
		atomic.AddInt64(&s.metrics.inputsRejected, 1)
	case errors.Is(err, view.ErrClosed):
	default:
		atomic.AddInt64(&s.metrics.backendFailures, 1)
	}

	s.respond(w, r, resp, v)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	v := s.session(w, r)
	err := v.FetchTransactions(context.WithoutCancel(r.Context()))
	if err != nil && !errors.Is(err, view.ErrClosed) {
		atomic.AddInt64(&s.metrics.backendFailures, 1)
	}
	s.respond(w, r, NewHTMXResponse(), v)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	v := s.session(w, r)
	v.ToggleDarkMode()
	s.respond(w, r, NewHTMXResponse().TriggerThemeChanged(v.Snapshot().DarkMode), v)
}

// respond answers an event. htmx requests get the re-rendered partial;
// plain form posts are redirected back to the page.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, v *view.View) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, "view", resp, v)
}

// render executes a template against the view's current state. Output is
// buffered so a template failure never produces half a page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, resp *HTMXResponseBuilder, v *view.View) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, view.Render(v.Snapshot())); err != nil {
		log.NewStructuredLogger(s.logger).LogError(r.Context(), "Template execution failed", err,
			log.ErrorTypeInternal, log.OpRender, log.LogFields{log.FieldTemplate: name})
		InternalServerError("Rendering failed").Write(w)
		return
	}
	resp.Header("Cache-Control", "no-store").BodyHTML(buf.String()).Write(w)
}
