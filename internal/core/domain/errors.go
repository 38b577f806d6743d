package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrMalformedData    = errors.New("malformed data")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ErrorCode is the closed set of machine-readable failure codes surfaced to
// callers. Codes outside this set never leave the subsystem.
type ErrorCode string

const (
	// Remote/transport codes produced by the analysis bridge.
	CodePythonNotAvailable ErrorCode = "PYTHON_NOT_AVAILABLE"
	CodeFileNotFound       ErrorCode = "FILE_NOT_FOUND"
	CodeFileTooLarge       ErrorCode = "FILE_TOO_LARGE"
	CodeUnsupportedType    ErrorCode = "UNSUPPORTED_FILE_TYPE"
	CodeTimeout            ErrorCode = "TIMEOUT_ERROR"
	CodeNetwork            ErrorCode = "NETWORK_ERROR"
	CodeMemory             ErrorCode = "MEMORY_ERROR"
	CodeDiskSpace          ErrorCode = "DISK_SPACE_ERROR"
	CodeInvalidResponse    ErrorCode = "INVALID_RESPONSE"
	CodeProcessingFailed   ErrorCode = "PROCESSING_FAILED"
	CodePermission         ErrorCode = "PERMISSION_ERROR"
	CodeInvalidInput       ErrorCode = "INVALID_INPUT"

	// Local validation codes, raised before any network activity.
	CodeNoDocument       ErrorCode = "NO_DOCUMENT"
	CodeInvalidStructure ErrorCode = "INVALID_DOCUMENT_STRUCTURE"
	CodeFilenameTooShort ErrorCode = "FILENAME_TOO_SHORT"
	CodeFilenameTooLong  ErrorCode = "FILENAME_TOO_LONG"
	CodeInvalidFilename  ErrorCode = "INVALID_FILENAME"
	CodeEmptyBasename    ErrorCode = "EMPTY_BASENAME"
	CodeInvalidMimeType  ErrorCode = "INVALID_MIME_TYPE"

	// Entity store codes, always synchronous and never retried.
	CodeDocumentNotFound  ErrorCode = "DOCUMENT_NOT_FOUND"
	CodeInvalidDocumentID ErrorCode = "INVALID_DOCUMENT_ID"
	CodeMalformedDocument ErrorCode = "MALFORMED_DOCUMENT_DATA"
)

// ProcessingError is the normalized error shape carried across the subsystem
// boundary: every failure a caller sees resolves to one of these.
type ProcessingError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *ProcessingError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

func NewProcessingError(code ErrorCode, message, details string) *ProcessingError {
	return &ProcessingError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// Retryable reports whether the orchestrator's bounded-retry loop may attempt
// the operation again. Local validation and store errors are never retryable.
func (e *ProcessingError) Retryable() bool {
	switch e.Code {
	case CodeTimeout, CodeNetwork, CodeMemory, CodePythonNotAvailable:
		return true
	default:
		return false
	}
}

// AsProcessingError extracts the normalized error from a wrapped chain,
// falling back to PROCESSING_FAILED for anything unclassified.
func AsProcessingError(err error) *ProcessingError {
	if err == nil {
		return nil
	}
	var perr *ProcessingError
	if errors.As(err, &perr) {
		return perr
	}
	return NewProcessingError(CodeProcessingFailed, "document processing failed", err.Error())
}

var userMessages = map[ErrorCode]string{
	CodePythonNotAvailable: "The analysis service is starting up. Please try again in a moment.",
	CodeFileNotFound:       "The selected file could not be found.",
	CodeFileTooLarge:       "The file is larger than the 50 MB limit.",
	CodeUnsupportedType:    "Only PDF files are supported.",
	CodeTimeout:            "The analysis took too long and was stopped. Please try again.",
	CodeNetwork:            "Could not reach the analysis service. Check your connection.",
	CodeMemory:             "The analysis service ran out of memory processing this file.",
	CodeDiskSpace:          "Not enough storage space to process this file.",
	CodeInvalidResponse:    "The analysis service returned an unexpected result.",
	CodeProcessingFailed:   "Something went wrong while analyzing the document.",
	CodePermission:         "Permission was denied while accessing the file.",
	CodeInvalidInput:       "The request was rejected by the analysis service.",
	CodeNoDocument:         "No document was provided.",
	CodeInvalidStructure:   "The document is missing required information.",
	CodeFilenameTooShort:   "The filename is too short.",
	CodeFilenameTooLong:    "The filename is too long.",
	CodeInvalidFilename:    "The filename contains characters that are not allowed.",
	CodeEmptyBasename:      "The filename has no name before the extension.",
	CodeInvalidMimeType:    "The file does not look like a PDF.",
	CodeDocumentNotFound:   "That document no longer exists.",
	CodeInvalidDocumentID:  "The document reference is invalid.",
	CodeMalformedDocument:  "The stored document data is damaged.",
}

// UserMessage returns copy suitable for direct display.
func (e *ProcessingError) UserMessage() string {
	if msg, ok := userMessages[e.Code]; ok {
		return msg
	}
	return userMessages[CodeProcessingFailed]
}
