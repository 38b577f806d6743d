// Package analysis is the sole point of contact with the external claim
// verification service. It owns the wire contract, the response-shape
// validation, and the mapping of transport failures onto the closed error
// code set.
package analysis

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/verityscan/verityscan/internal/core/domain"
	"github.com/verityscan/verityscan/internal/core/ports"
)

const (
	healthPath  = "/health"
	processPath = "/api/process-document"
)

type Client struct {
	baseURL        string
	httpClient     *http.Client
	healthTimeout  time.Duration
	requestTimeout time.Duration
}

type Options struct {
	HealthTimeout  time.Duration
	RequestTimeout time.Duration
	HTTPClient     *http.Client
}

func New(baseURL string, options Options) *Client {
	healthTimeout := options.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = 10 * time.Second
	}
	requestTimeout := options.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 5 * time.Minute
	}
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     httpClient,
		healthTimeout:  healthTimeout,
		requestTimeout: requestTimeout,
	}
}

// CheckHealth probes the service liveness endpoint. The deadline is enforced
// through the context, so a slow probe is actually cancelled rather than
// abandoned.
func (c *Client) CheckHealth(ctx context.Context) (domain.Health, error) {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return domain.Health{}, domain.NewProcessingError(domain.CodeNetwork, "build health request", err.Error())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Health{Healthy: false, Detail: err.Error()}, classifyTransportError("health", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
		Error      string            `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Health{Healthy: false, Detail: "unreadable health payload"},
			domain.NewProcessingError(domain.CodeInvalidResponse, "decode health payload", err.Error())
	}

	health := domain.Health{
		Healthy:    resp.StatusCode == http.StatusOK && payload.Status == "healthy",
		Status:     payload.Status,
		Components: payload.Components,
		Detail:     payload.Error,
	}
	return health, nil
}

// Submit uploads the document as a multipart payload and returns the decoded,
// shape-validated analysis result.
func (c *Client) Submit(ctx context.Context, sub ports.AnalysisSubmission) (*domain.AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.postMultipart(ctx, processPath, sub)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, mapHTTPFailure(resp)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, domain.NewProcessingError(domain.CodeNetwork, "read analysis response", err.Error())
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, domain.NewProcessingError(domain.CodeInvalidResponse, "analysis response is not valid JSON", err.Error())
	}
	if !ValidateResult(payload) {
		return nil, domain.NewProcessingError(domain.CodeInvalidResponse, "analysis response failed shape validation", "")
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, domain.NewProcessingError(domain.CodeInvalidResponse, "decode analysis response", err.Error())
	}
	return &result, nil
}

const maxResponseBytes = 32 << 20
