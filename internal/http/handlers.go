package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"sync/atomic"
	"time"

	"stepqueen/internal/core"
	applog "stepqueen/internal/log"
	"stepqueen/internal/services"
)

// storeFailureMessage is shown when the record store could not be read or written.
const storeFailureMessage = "Could not reach the step ledger. Please try again."

// indexPage is the data handed to index.html.
type indexPage struct {
	View         services.DashboardView
	Participants []core.Participant
	Today        string
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady checks templates and that the record store answers a read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), s.storeTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if records, err := s.ledger.Snapshot(ctx); err != nil {
		checks["record_store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["record_store"] = map[string]interface{}{
			"records": len(records),
			"status":  "ok",
		}
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.activeClients(),
		"status":         "ok",
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	rateLimitHits, invalidIPs, suspicious := s.secMetrics.snapshot()
	saved := atomic.LoadInt64(&s.appMetrics.stepsSaved)
	deleted := atomic.LoadInt64(&s.appMetrics.stepsDeleted)
	failures := atomic.LoadInt64(&s.appMetrics.storeFailures)
	uptime := time.Since(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP steps_saved_total Step records added or edited\n")
	fmt.Fprintf(w, "# TYPE steps_saved_total counter\n")
	fmt.Fprintf(w, "steps_saved_total %d\n\n", saved)

	fmt.Fprintf(w, "# HELP steps_deleted_total Step record delete requests served\n")
	fmt.Fprintf(w, "# TYPE steps_deleted_total counter\n")
	fmt.Fprintf(w, "steps_deleted_total %d\n\n", deleted)

	fmt.Fprintf(w, "# HELP store_failures_total Record store reads or writes that failed\n")
	fmt.Fprintf(w, "# TYPE store_failures_total counter\n")
	fmt.Fprintf(w, "store_failures_total %d\n\n", failures)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitHits)

	fmt.Fprintf(w, "# HELP invalid_forwarded_ip_total Unparseable forwarded client IPs\n")
	fmt.Fprintf(w, "# TYPE invalid_forwarded_ip_total counter\n")
	fmt.Fprintf(w, "invalid_forwarded_ip_total %d\n\n", invalidIPs)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", suspicious)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", s.rateLimiter.activeClients())

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", uptime.Seconds())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Page not found").Write(w)
		return
	}
	if resp := RequireMethod(r, http.MethodGet, http.MethodHead); resp != nil {
		resp.Write(w)
		return
	}
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		InternalServerError("templates not loaded").Write(w)
		return
	}

	now := s.now()
	today := s.ledger.Today(now)

	ctx, cancel := context.WithTimeout(r.Context(), s.storeTimeout)
	defer cancel()

	page := indexPage{
		View:         s.ledger.Dashboard(ctx, today.YearMonth(), now),
		Participants: s.ledger.Roster().Participants(),
		Today:        today.String(),
	}
	if page.View.Unavailable {
		atomic.AddInt64(&s.appMetrics.storeFailures, 1)
	}

	s.render(w, r, "index.html", page)
}

// handleDashboard renders the dashboard partial for ?year=&month=.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}

	now := s.now()
	ym := ParseMonthParams(r.URL.Query(), s.ledger.Today(now).YearMonth())

	ctx, cancel := context.WithTimeout(r.Context(), s.storeTimeout)
	defer cancel()

	view := s.ledger.Dashboard(ctx, ym, now)
	if view.Unavailable {
		atomic.AddInt64(&s.appMetrics.storeFailures, 1)
	}

	s.render(w, r, "dashboard", view)
}

// handleSubmitSteps adds or replaces the record for a (date, person) slot.
func (s *Server) handleSubmitSteps(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	rec, ok := s.parseStepRequest(w, r, s.ledger.Today(s.now()))
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.storeTimeout)
	defer cancel()

	if err := s.ledger.Submit(ctx, rec); err != nil {
		s.writeLedgerError(w, r, err, applog.OpUpsert, rec)
		return
	}

	atomic.AddInt64(&s.appMetrics.stepsSaved, 1)
	s.structured.LogStepSaved(r.Context(), rec.Date.String(), rec.Person, rec.Steps)

	msg := fmt.Sprintf("Saved %s steps for %s on %s", formatSteps(rec.Steps), rec.Person, rec.Date.String())
	NewHTMXResponse().
		TriggerStepsSaved(rec.Date.YearMonth()).
		TriggerFormReset().
		TriggerSuccessNotification(msg).
		BodyHTML(`<div class="success">` + template.HTMLEscapeString(msg) + `</div>`).
		Write(w)
}

// handleDeleteSteps removes the first record matching date, person and steps.
func (s *Server) handleDeleteSteps(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	// A delete names its record exactly; there is no date default.
	rec, ok := s.parseStepRequest(w, r, core.Date{})
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.storeTimeout)
	defer cancel()

	if err := s.ledger.Delete(ctx, rec); err != nil {
		s.writeLedgerError(w, r, err, applog.OpDelete, rec)
		return
	}

	atomic.AddInt64(&s.appMetrics.stepsDeleted, 1)
	s.structured.LogStepDeleted(r.Context(), rec.Date.String(), rec.Person, rec.Steps)

	NewHTMXResponse().
		TriggerStepsDeleted(rec.Date.YearMonth()).
		TriggerSuccessNotification("Entry deleted").
		Write(w)
}

// parseStepRequest decodes the body into a record, writing a 400 or 422 and
// returning false on failure. An empty date becomes defaultDate.
func (s *Server) parseStepRequest(w http.ResponseWriter, r *http.Request, defaultDate core.Date) (core.StepRecord, bool) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Malformed step request", applog.FieldError, err)
		BadRequestError("Malformed request").Write(w)
		return core.StepRecord{}, false
	}

	rec, err := ParseStepRecord(parser, defaultDate)
	if err != nil {
		UnprocessableEntityError(inputErrorMessage(err)).Write(w)
		return core.StepRecord{}, false
	}
	return rec, true
}

// writeLedgerError maps validation failures to 422 and store failures to 502.
func (s *Server) writeLedgerError(w http.ResponseWriter, r *http.Request, err error, op string, rec core.StepRecord) {
	if isInputError(err) {
		UnprocessableEntityError(inputErrorMessage(err)).Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.storeFailures, 1)
	fields := applog.NewFields().WithStepRecord(rec.Date.String(), rec.Person, rec.Steps)
	s.structured.LogError(r.Context(), "Record store failure", err, applog.ComponentLedger, op, fields)

	BadGatewayError(storeFailureMessage).
		TriggerErrorNotification(storeFailureMessage).
		Write(w)
}

// render executes a template into a buffer so a failure never leaves a
// half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.structured.LogError(r.Context(), "Template execution failed", err, applog.ComponentTemplate, applog.OpRender,
			applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", ""))
		InternalServerError("Could not render page").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
