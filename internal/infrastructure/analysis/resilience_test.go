package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/verityscan/verityscan/internal/core/domain"
)

func TestClassifyErrorRetryableCodes(t *testing.T) {
	retryable := []domain.ErrorCode{
		domain.CodeTimeout,
		domain.CodeNetwork,
		domain.CodeMemory,
		domain.CodePythonNotAvailable,
	}
	for _, code := range retryable {
		class := ClassifyError(domain.NewProcessingError(code, "x", ""))
		if !class.Retryable {
			t.Errorf("expected %s to be retryable", code)
		}
	}

	fatal := []domain.ErrorCode{
		domain.CodeUnsupportedType,
		domain.CodeFileTooLarge,
		domain.CodeInvalidResponse,
		domain.CodeProcessingFailed,
		domain.CodeInvalidInput,
	}
	for _, code := range fatal {
		class := ClassifyError(domain.NewProcessingError(code, "x", ""))
		if class.Retryable {
			t.Errorf("expected %s to be fatal", code)
		}
	}
}

func TestClassifyErrorContextExpiry(t *testing.T) {
	for _, err := range []error{context.Canceled, context.DeadlineExceeded} {
		class := ClassifyError(err)
		if class.Retryable {
			t.Errorf("expected %v not to be retryable", err)
		}
		if class.RecordFailure {
			t.Errorf("expected %v not to count against the breaker", err)
		}
	}
}

func TestClassifyErrorUnknown(t *testing.T) {
	class := ClassifyError(errors.New("mystery"))
	if class.Retryable {
		t.Fatal("expected unknown errors to be fatal")
	}
	if !class.RecordFailure {
		t.Fatal("expected unknown errors to count against the breaker")
	}
}
