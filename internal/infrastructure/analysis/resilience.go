package analysis

import (
	"context"
	"errors"

	"github.com/verityscan/verityscan/internal/core/domain"
	"github.com/verityscan/verityscan/internal/infrastructure/resilience"
)

// ClassifyError drives the retry executor: the normalized error's own
// retryability tag decides, with context expiry and open-breaker handled
// explicitly.
func ClassifyError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	var perr *domain.ProcessingError
	if errors.As(err, &perr) {
		return resilience.ErrorClassification{
			Retryable:     perr.Retryable(),
			RecordFailure: perr.Retryable(),
		}
	}

	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}
