// Package server exposes the loan calculator over HTTP: a JSON API and the
// embedded single-form web page that drives it.
package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/loans"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

type handler struct {
	logger      *zap.Logger
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler that serves the web UI and calculator API.
func NewHandler(logger *zap.Logger, maxBodySize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxBodySize: maxBodySize, version: trimmedVersion}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Post("/api/calculate", h.handleCalculate)
	r.Get("/api/version", h.handleVersion)
	r.Get("/healthz", h.handleHealth)

	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	r.Handle("/*", http.FileServer(http.FS(sub)))

	return r
}

// amount accepts either a JSON number or a string holding one. Anything
// else, including null, decodes to NaN and fails validation.
type amount float64

func (a *amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		*a = amount(loans.ParseAmount(raw))
		return nil
	}

	v, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil {
		*a = amount(math.NaN())
		return nil
	}
	*a = amount(v)
	return nil
}

type calculateRequest struct {
	Principal         amount `json:"principal"`
	AnnualRatePercent amount `json:"annualRatePercent"`
	TenureMonths      amount `json:"tenureMonths"`
}

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	// Fields left out of the payload stay NaN and are reported as invalid.
	req := calculateRequest{
		Principal:         amount(math.NaN()),
		AnnualRatePercent: amount(math.NaN()),
		TenureMonths:      amount(math.NaN()),
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				errorResponse{Error: fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize)}, op)
			return
		}
		h.respondError(w, http.StatusBadRequest,
			errorResponse{Error: fmt.Sprintf("failed to decode request: %v", err)}, op)
		return
	}

	inputs := loans.LoanInputs{
		Principal:         float64(req.Principal),
		AnnualRatePercent: float64(req.AnnualRatePercent),
		TenureMonths:      float64(req.TenureMonths),
	}

	result, err := loans.ComputeResult(inputs)
	if err != nil {
		var validationErr *loans.ValidationError
		if errors.As(err, &validationErr) {
			h.respondError(w, http.StatusUnprocessableEntity,
				errorResponse{Error: validationErr.Message, Fields: validationErr.Fields}, op)
			return
		}
		h.respondError(w, http.StatusInternalServerError, errorResponse{Error: err.Error()}, op)
		return
	}

	h.logger.Debug("installment computed",
		zap.String("op", op),
		zap.Float64("principal", inputs.Principal),
		zap.Float64("annual_rate_percent", inputs.AnnualRatePercent),
		zap.Float64("tenure_months", inputs.TenureMonths),
		zap.Float64("installment", result.Installment),
		zap.Duration("duration", time.Since(start)),
	)

	h.writeJSON(w, http.StatusOK, result)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *handler) respondError(w http.ResponseWriter, status int, resp errorResponse, op string) {
	level := h.logger.Warn
	if status >= http.StatusInternalServerError {
		level = h.logger.Error
	}
	level("calculation request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", resp.Error),
		zap.Strings("fields", resp.Fields),
	)

	h.writeJSON(w, status, resp)
}

// writeJSON encodes before writing the header so an unencodable payload
// becomes a 500 instead of a truncated response under the intended status.
func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		h.logger.Error("failed to encode JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Int("status", status),
			zap.Error(err),
		)
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorResponse{Error: "failed to encode response"})
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.logger.Info("request served",
			zap.String("op", "server.logRequests"),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
