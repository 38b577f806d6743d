// Package pdfinfo reads lightweight structural metadata from staged PDFs.
package pdfinfo

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// Inspector is the injectable form of this package's functions.
type Inspector struct{}

func (Inspector) PageCount(path string) (int, error) {
	return PageCount(path)
}

// PageCount opens a staged PDF and returns its page count. Failures are not
// fatal to a job; the caller records zero pages and moves on.
func PageCount(path string) (int, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	return reader.NumPage(), nil
}

// FileSize returns the byte size of a staged file.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat staged file: %w", err)
	}
	return info.Size(), nil
}
