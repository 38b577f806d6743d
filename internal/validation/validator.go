// Package validation performs structural checks on a candidate document
// before any network activity. All checks are pure and synchronous; the first
// failure wins and carries a distinct machine-readable code.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/verityscan/verityscan/internal/core/domain"
)

// MaxFileSize is the upload ceiling enforced both here and by the analysis
// service.
const MaxFileSize = 50 * 1024 * 1024

const (
	minFilenameLength = 3
	maxFilenameLength = 255
)

const forbiddenFilenameChars = `<>:"/\|?*`

type Result struct {
	Valid   bool             `json:"valid"`
	Code    domain.ErrorCode `json:"code,omitempty"`
	Message string           `json:"message,omitempty"`
}

func ok() Result {
	return Result{Valid: true}
}

func fail(code domain.ErrorCode, message string) Result {
	return Result{Valid: false, Code: code, Message: message}
}

// Validate runs the ordered check sequence against a candidate document.
func Validate(doc *domain.DocumentInfo) Result {
	if doc == nil {
		return fail(domain.CodeNoDocument, "no document provided")
	}
	if strings.TrimSpace(doc.URI) == "" || strings.TrimSpace(doc.Name) == "" {
		return fail(domain.CodeInvalidStructure, "document is missing uri or name")
	}
	if doc.Size > MaxFileSize {
		return fail(domain.CodeFileTooLarge,
			fmt.Sprintf("file size %d exceeds the %d byte limit", doc.Size, MaxFileSize))
	}
	ext := strings.ToLower(filepath.Ext(doc.Name))
	if ext != ".pdf" {
		return fail(domain.CodeUnsupportedType,
			fmt.Sprintf("unsupported file extension %q, only .pdf is accepted", ext))
	}
	if len(doc.Name) < minFilenameLength {
		return fail(domain.CodeFilenameTooShort,
			fmt.Sprintf("filename must be at least %d characters", minFilenameLength))
	}
	if len(doc.Name) > maxFilenameLength {
		return fail(domain.CodeFilenameTooLong,
			fmt.Sprintf("filename must be at most %d characters", maxFilenameLength))
	}
	if idx := strings.IndexAny(doc.Name, forbiddenFilenameChars); idx >= 0 {
		return fail(domain.CodeInvalidFilename,
			fmt.Sprintf("filename contains forbidden character %q", doc.Name[idx]))
	}
	for _, r := range doc.Name {
		if r < 0x20 {
			return fail(domain.CodeInvalidFilename, "filename contains control characters")
		}
	}
	base := strings.TrimSuffix(doc.Name, filepath.Ext(doc.Name))
	if strings.TrimSpace(base) == "" {
		return fail(domain.CodeEmptyBasename, "filename has no base name before the extension")
	}
	if doc.MimeType != "" && !strings.Contains(strings.ToLower(doc.MimeType), "pdf") {
		return fail(domain.CodeInvalidMimeType,
			fmt.Sprintf("declared mime type %q is not a pdf type", doc.MimeType))
	}
	return ok()
}
