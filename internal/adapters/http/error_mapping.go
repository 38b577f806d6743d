package httpadapter

import (
	"net/http"

	"github.com/verityscan/verityscan/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	perr := domain.AsProcessingError(err)
	switch perr.Code {
	case domain.CodeDocumentNotFound, domain.CodeFileNotFound:
		return http.StatusNotFound
	case domain.CodeInvalidDocumentID, domain.CodeInvalidInput, domain.CodeNoDocument,
		domain.CodeInvalidStructure, domain.CodeFilenameTooShort, domain.CodeFilenameTooLong,
		domain.CodeInvalidFilename, domain.CodeEmptyBasename, domain.CodeInvalidMimeType:
		return http.StatusBadRequest
	case domain.CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case domain.CodeUnsupportedType:
		return http.StatusUnsupportedMediaType
	case domain.CodePythonNotAvailable, domain.CodeNetwork:
		return http.StatusServiceUnavailable
	case domain.CodeTimeout:
		return http.StatusGatewayTimeout
	case domain.CodeDiskSpace:
		return http.StatusInsufficientStorage
	default:
	}

	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrMalformedData):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error       string           `json:"error"`
	Code        domain.ErrorCode `json:"code"`
	UserMessage string           `json:"user_message"`
}

func writeError(w http.ResponseWriter, err error) {
	perr := domain.AsProcessingError(err)
	writeJSON(w, mapErrorToHTTPStatus(err), errorResponse{
		Error:       perr.Message,
		Code:        perr.Code,
		UserMessage: perr.UserMessage(),
	})
}
