package httpadapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/verityscan/verityscan/internal/companyname"
	"github.com/verityscan/verityscan/internal/core/domain"
	"github.com/verityscan/verityscan/internal/core/ports"
	"github.com/verityscan/verityscan/internal/infrastructure/export"
	"github.com/verityscan/verityscan/internal/observability/metrics"
	"github.com/verityscan/verityscan/internal/validation"
)

// RouterConfig tunes the HTTP surface.
type RouterConfig struct {
	ServiceName string
	// RateLimitRPS caps inbound requests per second; zero disables the limiter.
	RateLimitRPS   float64
	RateLimitBurst int
	// MaxUploadBytes bounds multipart request bodies.
	MaxUploadBytes int64
}

func (c RouterConfig) withDefaults() RouterConfig {
	out := c
	if out.ServiceName == "" {
		out.ServiceName = "verityscan-api"
	}
	if out.MaxUploadBytes <= 0 {
		out.MaxUploadBytes = validation.MaxFileSize
	}
	return out
}

type Router struct {
	submitter ports.DocumentSubmitter
	store     ports.DocumentStore
	bridge    ports.AnalysisService

	httpMetrics *metrics.HTTPServerMetrics
	jobMetrics  *metrics.JobMetrics
	cfg         RouterConfig
}

func NewRouter(
	submitter ports.DocumentSubmitter,
	store ports.DocumentStore,
	bridge ports.AnalysisService,
	httpMetrics *metrics.HTTPServerMetrics,
	jobMetrics *metrics.JobMetrics,
	cfg RouterConfig,
) *Router {
	return &Router{
		submitter:   submitter,
		store:       store,
		bridge:      bridge,
		httpMetrics: httpMetrics,
		jobMetrics:  jobMetrics,
		cfg:         cfg.withDefaults(),
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.documents)
	mux.HandleFunc("/v1/documents/", rt.documentByID)
	mux.HandleFunc("/v1/claims", rt.claims)
	mux.HandleFunc("/v1/stats", rt.stats)
	mux.HandleFunc("/v1/search", rt.search)
	mux.HandleFunc("/v1/jobs", rt.jobs)
	mux.HandleFunc("/v1/jobs/", rt.jobByID)
	mux.HandleFunc("/v1/extract-company-name", rt.extractCompanyName)

	var handler http.Handler = mux
	handler = rateLimitMiddleware(rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst, handler)
	if rt.httpMetrics != nil {
		handler = rt.httpMetrics.Middleware(rt.cfg.ServiceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	bridgeState := "unknown"
	if rt.bridge != nil {
		health, err := rt.bridge.CheckHealth(r.Context())
		switch {
		case err != nil:
			bridgeState = "unreachable"
		case health.Healthy:
			bridgeState = "healthy"
		default:
			bridgeState = "unhealthy"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"components": map[string]string{
			"analysis_service": bridgeState,
		},
	})
}

func (rt *Router) documents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.submitDocument(w, r)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"documents": rt.store.AllDocuments(),
		})
	default:
		writeMethodNotAllowed(w)
	}
}

func (rt *Router) submitDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes+1<<20)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, domain.NewProcessingError(domain.CodeNoDocument,
			"multipart field 'file' is required", err.Error()))
		return
	}
	defer file.Close()

	info := domain.DocumentInfo{
		URI:         "upload://" + fileHeader.Filename,
		Name:        fileHeader.Filename,
		Size:        fileHeader.Size,
		MimeType:    fileHeader.Header.Get("Content-Type"),
		CompanyName: strings.TrimSpace(r.FormValue("company_name")),
	}

	// Admission check before any work happens on behalf of this request.
	if result := validation.Validate(&info); !result.Valid {
		writeError(w, domain.NewProcessingError(result.Code, result.Message, info.Name))
		return
	}

	start := time.Now()
	if rt.jobMetrics != nil {
		rt.jobMetrics.StartJob()
	}

	receipt, err := rt.submitter.Submit(r.Context(), info, file)

	if rt.jobMetrics != nil {
		status := "completed"
		retries := 0
		if err != nil {
			status = "error"
		}
		if receipt != nil {
			if job, ok := rt.submitter.GetJob(receipt.JobID); ok {
				status = string(job.Status)
				retries = job.RetryCount
			}
		}
		rt.jobMetrics.FinishJob(rt.cfg.ServiceName, status, time.Since(start), retries)
	}

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, receipt)
}

func (rt *Router) documentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if wantExport := strings.HasSuffix(rest, "/export"); wantExport {
		rt.exportDocument(w, r, strings.TrimSuffix(rest, "/export"))
		return
	}

	doc, err := rt.store.GetDocumentByID(rest)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) exportDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := rt.store.GetDocumentByID(id)
	if err != nil {
		writeError(w, err)
		return
	}

	// Render into memory first so a failure still gets a clean error response.
	var buf bytes.Buffer
	if err := export.WriteClaimsReport(&buf, doc); err != nil {
		writeError(w, err)
		return
	}

	base := strings.TrimSuffix(path.Base(doc.Filename), path.Ext(doc.Filename))
	if base == "" || base == "." {
		base = doc.ID
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+"_claims.xlsx"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

func (rt *Router) extractCompanyName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req struct {
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewProcessingError(domain.CodeInvalidInput,
			"request body must be a json object", err.Error()))
		return
	}
	if strings.TrimSpace(req.Filename) == "" {
		writeError(w, domain.NewProcessingError(domain.CodeInvalidInput,
			"filename is required", ""))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"filename":     req.Filename,
		"company_name": companyname.Extract(req.Filename),
	})
}

func (rt *Router) claims(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	status := r.URL.Query().Get("status")
	documentID := r.URL.Query().Get("document_id")
	claims := rt.store.FilterClaimsByStatus(status, documentID)

	writeJSON(w, http.StatusOK, map[string]any{
		"claims": claims,
		"count":  len(claims),
	})
}

func (rt *Router) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, rt.store.OverallStats())
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	query := r.URL.Query().Get("q")
	docs := rt.store.SearchDocuments(query)

	writeJSON(w, http.StatusOK, map[string]any{
		"query":     query,
		"documents": docs,
		"count":     len(docs),
	})
}

func (rt *Router) jobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs": rt.submitter.ListJobs(),
	})
}

func (rt *Router) jobByID(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	if jobID == "" {
		writeError(w, domain.NewProcessingError(domain.CodeInvalidInput, "job id is required", ""))
		return
	}

	switch r.Method {
	case http.MethodGet:
		job, ok := rt.submitter.GetJob(jobID)
		if !ok {
			writeError(w, domain.NewProcessingError(domain.CodeDocumentNotFound,
				fmt.Sprintf("job %s does not exist", jobID), ""))
			return
		}
		writeJSON(w, http.StatusOK, job)
	case http.MethodDelete:
		if err := rt.submitter.CancelJob(jobID); err != nil {
			writeError(w, err)
			return
		}
		job, _ := rt.submitter.GetJob(jobID)
		writeJSON(w, http.StatusOK, job)
	default:
		writeMethodNotAllowed(w)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}
