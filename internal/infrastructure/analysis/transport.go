package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"

	"github.com/verityscan/verityscan/internal/core/domain"
	"github.com/verityscan/verityscan/internal/core/ports"
)

func (c *Client) postMultipart(ctx context.Context, path string, sub ports.AnalysisSubmission) (*http.Response, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", sub.Filename)
	if err != nil {
		return nil, domain.NewProcessingError(domain.CodeProcessingFailed, "build multipart payload", err.Error())
	}
	if _, err := io.Copy(part, sub.File); err != nil {
		return nil, domain.NewProcessingError(domain.CodeFileNotFound, "read upload source", err.Error())
	}
	if sub.CompanyName != "" {
		if err := writer.WriteField("company_name", sub.CompanyName); err != nil {
			return nil, domain.NewProcessingError(domain.CodeProcessingFailed, "build multipart payload", err.Error())
		}
	}
	if err := writer.Close(); err != nil {
		return nil, domain.NewProcessingError(domain.CodeProcessingFailed, "finalize multipart payload", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, domain.NewProcessingError(domain.CodeNetwork, "build upload request", err.Error())
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("submit", err)
	}
	return resp, nil
}

// classifyTransportError turns client-side request failures into normalized
// processing errors. Deadline expiry is a TIMEOUT_ERROR; everything else on
// the wire is a NETWORK_ERROR.
func classifyTransportError(operation string, err error) *domain.ProcessingError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.NewProcessingError(domain.CodeTimeout,
			fmt.Sprintf("analysis %s timed out", operation), err.Error())
	case errors.Is(err, context.Canceled):
		return domain.NewProcessingError(domain.CodeNetwork,
			fmt.Sprintf("analysis %s was cancelled", operation), err.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.NewProcessingError(domain.CodeTimeout,
			fmt.Sprintf("analysis %s timed out", operation), err.Error())
	}
	return domain.NewProcessingError(domain.CodeNetwork,
		fmt.Sprintf("analysis %s failed", operation), err.Error())
}

// serverErrorBody is the JSON error envelope the analysis service returns on
// non-2xx responses.
type serverErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// mapHTTPFailure translates a non-2xx response onto the closed code set.
// The service's own code string wins when it maps cleanly; otherwise the HTTP
// status decides.
func mapHTTPFailure(resp *http.Response) *domain.ProcessingError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body serverErrorBody
	_ = json.Unmarshal(raw, &body)

	if code, ok := mapServerCode(body.Code); ok {
		return domain.NewProcessingError(code, messageOrStatus(body.Error, resp.Status), body.Code)
	}

	switch resp.StatusCode {
	case http.StatusRequestEntityTooLarge:
		return domain.NewProcessingError(domain.CodeFileTooLarge, "file exceeds the service upload limit", resp.Status)
	case http.StatusBadRequest:
		return domain.NewProcessingError(domain.CodeInvalidInput, messageOrStatus(body.Error, resp.Status), body.Code)
	case http.StatusNotFound:
		return domain.NewProcessingError(domain.CodeFileNotFound, messageOrStatus(body.Error, resp.Status), body.Code)
	case http.StatusForbidden:
		return domain.NewProcessingError(domain.CodePermission, messageOrStatus(body.Error, resp.Status), body.Code)
	case http.StatusServiceUnavailable:
		return domain.NewProcessingError(domain.CodePythonNotAvailable, "analysis service unavailable", resp.Status)
	case http.StatusGatewayTimeout:
		return domain.NewProcessingError(domain.CodeTimeout, "analysis service timed out", resp.Status)
	default:
		return domain.NewProcessingError(domain.CodeProcessingFailed, messageOrStatus(body.Error, resp.Status), body.Code)
	}
}

func mapServerCode(code string) (domain.ErrorCode, bool) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "NO_FILE", "NO_FILE_SELECTED", "NO_FILENAME":
		return domain.CodeInvalidInput, true
	case "INVALID_FILE_TYPE":
		return domain.CodeUnsupportedType, true
	case "FILE_TOO_LARGE":
		return domain.CodeFileTooLarge, true
	case "MEMORY_ERROR":
		return domain.CodeMemory, true
	case "DISK_SPACE_ERROR":
		return domain.CodeDiskSpace, true
	case "PERMISSION_ERROR":
		return domain.CodePermission, true
	case "EXTRACTION_ERROR", "PROCESSING_ERROR", "INTERNAL_ERROR":
		return domain.CodeProcessingFailed, true
	default:
		return "", false
	}
}

func messageOrStatus(message, status string) string {
	if strings.TrimSpace(message) != "" {
		return message
	}
	return "analysis service returned " + status
}
