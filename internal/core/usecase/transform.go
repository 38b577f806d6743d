package usecase

import (
	"fmt"
	"strings"

	"github.com/verityscan/verityscan/internal/core/domain"
)

// Defaults substituted for missing optional fields on external claim records.
// Missing optional data never rejects a claim.
const (
	defaultClaimCategory  = "general"
	defaultClaimReasoning = "No reasoning provided"
)

// transformClaims converts the analysis service's claim records into the
// internal shape. IDs fall back to a positional value, confidence prefers the
// verification score over the extraction score, and unknown verification
// statuses degrade to unverified.
func transformClaims(records []domain.AnalysisClaim, documentID string) []domain.Claim {
	claims := make([]domain.Claim, 0, len(records))
	for i, rec := range records {
		claim := domain.Claim{
			ID:         claimID(rec.ID, i),
			Text:       rec.Text,
			Category:   claimCategory(rec.ExtractedData),
			Confidence: domain.ClampConfidence(claimConfidence(rec)),
			Status:     claimStatus(rec.VerificationStatus),
			Evidence:   claimEvidence(rec.MatchDetails),
			Reasoning:  claimReasoning(rec.MatchDetails),
			DocumentID: documentID,
		}
		claims = append(claims, claim)
	}
	return claims
}

func claimID(raw any, index int) string {
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			return v
		}
	case float64:
		return fmt.Sprintf("%d", int64(v))
	case int:
		return fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("claim_%d", index+1)
}

func claimCategory(data domain.ExtractedData) string {
	if metric := strings.TrimSpace(data.Metric); metric != "" {
		return strings.ToLower(metric)
	}
	return defaultClaimCategory
}

func claimConfidence(rec domain.AnalysisClaim) float64 {
	if rec.VerificationConfidence > 0 {
		return rec.VerificationConfidence
	}
	return rec.Confidence
}

func claimStatus(raw string) domain.ClaimStatus {
	status := domain.ClaimStatus(strings.ToLower(strings.TrimSpace(raw)))
	if status.Valid() {
		return status
	}
	return domain.ClaimUnverified
}

func claimEvidence(details *domain.MatchDetails) int {
	if details == nil {
		return 0
	}
	evidence := 0
	if details.CSVMatch {
		evidence++
	}
	if details.ToleranceCheck {
		evidence++
	}
	if details.MatchedData != nil {
		evidence++
	}
	return evidence
}

func claimReasoning(details *domain.MatchDetails) string {
	if details == nil || strings.TrimSpace(details.Reasoning) == "" {
		return defaultClaimReasoning
	}
	return details.Reasoning
}
