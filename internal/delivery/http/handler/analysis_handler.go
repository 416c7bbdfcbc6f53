package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"dutree/internal/application/analysis"
	"dutree/internal/application/builder"
	"dutree/internal/domain/report"
	"dutree/internal/infrastructure/logging"
)

const maxListLimit = 1000

type AnalysisHandler struct {
	service           analysis.Service
	maxTranscriptSize int64
}

func NewAnalysisHandler(service analysis.Service, maxTranscriptSize int64) *AnalysisHandler {
	return &AnalysisHandler{
		service:           service,
		maxTranscriptSize: maxTranscriptSize,
	}
}

// Analyze handles POST /api/analyze?name=...
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		SendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Query().Get("name")
	body := http.MaxBytesReader(w, r.Body, h.maxTranscriptSize)
	defer body.Close()

	rep, err := h.service.Analyze(name, body)
	if err != nil {
		h.sendAnalyzeError(w, r, err)
		return
	}

	requestLogger(r.Context()).Debug("analyze served",
		logging.String("report_id", rep.ID),
		zap.Bool("authenticated", IsAuthenticated(r.Context())),
	)
	SendSuccess(w, "Transcript analyzed", rep)
}

func (h *AnalysisHandler) sendAnalyzeError(w http.ResponseWriter, r *http.Request, err error) {
	var lineErr *builder.LineError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &tooLarge):
		SendError(w, fmt.Sprintf("Transcript exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
	case errors.As(err, &lineErr):
		SendLineError(w, lineErr.Err.Error(), ErrorDetail{Line: lineErr.Line, Text: lineErr.Text})
	case errors.Is(err, builder.ErrRead):
		SendError(w, "Failed to read transcript", http.StatusBadRequest)
	default:
		requestLogger(r.Context()).Error("analyze failed", logging.Err(err))
		SendError(w, "Failed to analyze transcript", http.StatusInternalServerError)
	}
}

// HandleReports handles GET /api/reports?limit=N&digest=D
func (h *AnalysisHandler) HandleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		SendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var (
		reports []*report.Report
		err     error
	)
	if digest := r.URL.Query().Get("digest"); digest != "" {
		reports, err = h.service.ReportsByDigest(digest)
	} else {
		limit, perr := parseLimit(r.URL.Query().Get("limit"))
		if perr != nil {
			SendError(w, perr.Error(), http.StatusBadRequest)
			return
		}
		reports, err = h.service.ListReports(limit)
	}
	if err != nil {
		h.sendStorageError(w, r, err)
		return
	}

	SendSuccess(w, "", reports)
}

// HandleReportByID routes /api/reports/{id} based on method
func (h *AnalysisHandler) HandleReportByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/reports/"), "/")
	if id == "" {
		SendError(w, "Report ID required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		rep, err := h.service.GetReport(id)
		if err != nil {
			h.sendStorageError(w, r, err)
			return
		}
		SendSuccess(w, "", rep)
	case http.MethodDelete:
		if err := h.service.DeleteReport(id); err != nil {
			h.sendStorageError(w, r, err)
			return
		}
		SendSuccess(w, "Report deleted", nil)
	default:
		SendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AnalysisHandler) sendStorageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, report.ErrReportNotFound):
		SendError(w, "Report not found", http.StatusNotFound)
	case errors.Is(err, analysis.ErrStorageDisabled):
		SendError(w, "Report storage is disabled", http.StatusServiceUnavailable)
	default:
		requestLogger(r.Context()).Error("report storage failed", logging.Err(err))
		SendError(w, "Failed to access reports", http.StatusInternalServerError)
	}
}

// Health handles GET /healthz
func (h *AnalysisHandler) Health(w http.ResponseWriter, r *http.Request) {
	SendSuccess(w, "ok", map[string]any{"params": h.service.Params()})
}

// parseLimit reads the limit query parameter. Empty means the default of 50.
func parseLimit(s string) (int, error) {
	if s == "" {
		return 50, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid limit %q", s)
	}
	return min(n, maxListLimit), nil
}
