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

	"github.com/gorilla/mux"

	"financecalc/internal/cache"
	"financecalc/internal/export"
	"financecalc/internal/finance"
	"financecalc/internal/log"
)

const (
	serviceName    = "FinanceCalc API"
	serviceVersion = "1.0.0"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": serviceVersion,
		"service": serviceName,
	})
}

// handleLiveness performs basic liveness check
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadiness reports ready while a valid tax policy is active. A failed
// reload is reported but does not make the instance unready, since the
// previous policy keeps serving.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	policy := s.engine.Policy()
	policyCheck := map[string]any{
		"name":        policy.Name,
		"fiscal_year": policy.FiscalYear,
		"fingerprint": policy.Fingerprint(),
		"status":      "ok",
	}
	if err := policy.Validate(); err != nil {
		policyCheck["status"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}
	if s.policies != nil {
		loadedAt, lastErr := s.policies.Status()
		if !loadedAt.IsZero() {
			policyCheck["loaded_at"] = loadedAt.Format(time.RFC3339)
		}
		if lastErr != nil {
			policyCheck["last_reload_error"] = lastErr.Error()
		}
	}
	checks["tax_policy"] = policyCheck

	if s.stats != nil {
		st := s.stats()
		checks["cache"] = map[string]any{"entries": st.Size, "status": "ok"}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	trace := s.traceMiddleware.GetMetrics()
	sec := s.securityDetector.GetMetrics()

	writeMetric(w, "http_requests_total", "counter", "Total number of HTTP requests", trace.TotalRequests)
	writeMetric(w, "http_server_errors_total", "counter", "Responses with a 5xx status", trace.ServerErrors)
	writeMetric(w, "calculations_total", "counter", "Calculations requested", atomic.LoadInt64(&s.appMetrics.calculations))
	writeMetric(w, "calculation_errors_total", "counter", "Calculations rejected", atomic.LoadInt64(&s.appMetrics.calculationErrors))
	writeMetric(w, "cache_hits_total", "counter", "Calculations served from cache", atomic.LoadInt64(&s.appMetrics.cacheHits))
	writeMetric(w, "cache_misses_total", "counter", "Calculations computed", atomic.LoadInt64(&s.appMetrics.cacheMisses))
	writeMetric(w, "exports_total", "counter", "Breakdown exports served", atomic.LoadInt64(&s.appMetrics.exports))
	if s.stats != nil {
		writeMetric(w, "cache_entries", "gauge", "Current cache entries", int64(s.stats().Size))
	}
	if s.rateLimiter != nil {
		rl := s.rateLimiter.GetMetrics()
		writeMetric(w, "rate_limit_rejections_total", "counter", "Requests rejected by the rate limiter", rl.Rejected)
		writeMetric(w, "active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rl.ClientCount)
	}
	writeMetric(w, "suspicious_requests_total", "counter", "Total suspicious requests detected", sec.SuspiciousRequests)
	writeMetric(w, "uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.appMetrics.uptime).Seconds()))
}

func writeMetric(w http.ResponseWriter, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %d\n\n", name, help, name, kind, name, value)
}

func (s *Server) handleTaxPolicy(w http.ResponseWriter, r *http.Request) {
	policy := s.engine.Policy()
	NewJSONResponse().Success(struct {
		finance.TaxPolicy
		Fingerprint string `json:"fingerprint"`
	}{policy, policy.Fingerprint()}).Write(w)
}

func (s *Server) handleGST(w http.ResponseWriter, r *http.Request) {
	s.serveCalculation(w, r, finance.CalcGST)
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["calculator"]
	if !finance.Has(name) {
		NotFoundError(fmt.Sprintf("Unknown calculator: %s", name)).Write(w)
		return
	}
	s.serveCalculation(w, r, name)
}

func (s *Server) serveCalculation(w http.ResponseWriter, r *http.Request, name string) {
	ctx := r.Context()

	in, err := ParseCalculatorInput(w, r, s.maxBody)
	if err != nil {
		s.recordCalculation(false, err)
		s.writeCalculationError(w, r, name, err)
		return
	}

	data, hit, err := s.calculate(ctx, name, in)
	s.recordCalculation(hit, err)
	if err != nil {
		s.writeCalculationError(w, r, name, err)
		return
	}

	log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentEngine)).LogCalculation(ctx, name, hit)

	cacheStatus := "MISS"
	if hit {
		cacheStatus = "HIT"
	}
	NewJSONResponse().
		Header("X-Cache", cacheStatus).
		Success(json.RawMessage(data)).
		Write(w)
}

// calculate runs name through the result cache. The key includes the tax
// policy fingerprint for calculators that depend on it.
func (s *Server) calculate(ctx context.Context, name string, in finance.Input) ([]byte, bool, error) {
	fingerprint := ""
	if name == finance.CalcIndiaTax {
		fingerprint = s.engine.Policy().Fingerprint()
	}
	return s.memo.Do(ctx, cache.Key(name, fingerprint, in), func() ([]byte, error) {
		res, err := s.engine.Calculate(name, in)
		if err != nil {
			return nil, err
		}
		return json.Marshal(res)
	})
}

// writeCalculationError maps engine errors onto the envelope. Validation and
// computation failures share status 400.
func (s *Server) writeCalculationError(w http.ResponseWriter, r *http.Request, name string, err error) {
	ctx := r.Context()
	sl := log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentEngine))

	var ve *finance.ValidationError
	var ce *finance.ComputationError
	switch {
	case errors.As(err, &ve):
		sl.LogRejected(ctx, name, log.ErrorTypeValidation, string(ve.Reason), err)
		BadRequestError(ve.Message).Write(w)
	case errors.As(err, &ce):
		sl.LogRejected(ctx, name, log.ErrorTypeComputation, string(ce.Reason), err)
		BadRequestError(ce.Message).Write(w)
	case errors.Is(err, errBodyTooLarge):
		sl.LogRejected(ctx, name, log.ErrorTypeValidation, string(finance.ReasonInvalidBody), err)
		ErrorResponse(http.StatusRequestEntityTooLarge, "Request body too large").Write(w)
	case errors.Is(err, finance.ErrUnknownCalculator):
		NotFoundError(fmt.Sprintf("Unknown calculator: %s", name)).Write(w)
	default:
		fields := log.NewFields()
		fields[log.FieldCalculator] = name
		sl.LogError(ctx, "Calculation failed", err, log.OpCalculate, fields)
		InternalServerError().Write(w)
	}
}

// handleExport runs a calculation and returns its breakdown as a file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["calculator"]
	if !finance.Has(name) {
		NotFoundError(fmt.Sprintf("Unknown calculator: %s", name)).Write(w)
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	in, err := ParseCalculatorInput(w, r, s.maxBody)
	if err != nil {
		s.writeCalculationError(w, r, name, err)
		return
	}
	res, err := s.engine.Calculate(name, in)
	if err != nil {
		s.writeCalculationError(w, r, name, err)
		return
	}

	tab, ok := res.(finance.Tabular)
	if !ok {
		NotFoundError(fmt.Sprintf("Calculator %s has no exportable breakdown", name)).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, tab.Table()); err != nil {
		fields := log.NewFields()
		fields[log.FieldCalculator] = name
		fields[log.FieldFormat] = string(format)
		log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentExport)).
			LogError(ctx, "Export failed", err, log.OpExport, fields)
		InternalServerError().Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.exports, 1)

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.Filename(name)))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	NotFoundError("Not found").Write(w)
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	MethodNotAllowedError().Write(w)
}
