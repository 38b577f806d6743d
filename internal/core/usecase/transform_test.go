package usecase

import (
	"testing"

	"github.com/verityscan/verityscan/internal/core/domain"
)

func TestTransformClaimsDefaults(t *testing.T) {
	records := []domain.AnalysisClaim{
		{Text: "bare claim with nothing optional"},
	}

	claims := transformClaims(records, "doc-1")
	if len(claims) != 1 {
		t.Fatalf("expected 1 claim, got %d", len(claims))
	}

	claim := claims[0]
	if claim.ID != "claim_1" {
		t.Fatalf("expected positional id claim_1, got %q", claim.ID)
	}
	if claim.Category != "general" {
		t.Fatalf("expected default category, got %q", claim.Category)
	}
	if claim.Status != domain.ClaimUnverified {
		t.Fatalf("expected unverified default, got %s", claim.Status)
	}
	if claim.Reasoning != "No reasoning provided" {
		t.Fatalf("expected default reasoning, got %q", claim.Reasoning)
	}
	if claim.Evidence != 0 {
		t.Fatalf("expected 0 evidence, got %d", claim.Evidence)
	}
	if claim.DocumentID != "doc-1" {
		t.Fatalf("expected back-reference, got %q", claim.DocumentID)
	}
}

func TestTransformClaimsIDVariants(t *testing.T) {
	records := []domain.AnalysisClaim{
		{ID: "c-abc"},
		{ID: 7.0},
		{ID: ""},
		{ID: nil},
	}

	claims := transformClaims(records, "doc-1")
	want := []string{"c-abc", "7", "claim_3", "claim_4"}
	for i, claim := range claims {
		if claim.ID != want[i] {
			t.Errorf("claim %d: expected id %q, got %q", i, want[i], claim.ID)
		}
	}
}

func TestTransformClaimsConfidencePreference(t *testing.T) {
	records := []domain.AnalysisClaim{
		{Confidence: 0.6, VerificationConfidence: 0.9},
		{Confidence: 0.6, VerificationConfidence: 0},
		{Confidence: 1.8, VerificationConfidence: 0},
	}

	claims := transformClaims(records, "doc-1")
	if claims[0].Confidence != 0.9 {
		t.Fatalf("expected verification confidence, got %f", claims[0].Confidence)
	}
	if claims[1].Confidence != 0.6 {
		t.Fatalf("expected extraction confidence fallback, got %f", claims[1].Confidence)
	}
	if claims[2].Confidence != 1 {
		t.Fatalf("expected clamped confidence, got %f", claims[2].Confidence)
	}
}

func TestTransformClaimsStatusNormalization(t *testing.T) {
	records := []domain.AnalysisClaim{
		{VerificationStatus: "VERIFIED"},
		{VerificationStatus: " questionable "},
		{VerificationStatus: "rejected"},
	}

	claims := transformClaims(records, "doc-1")
	if claims[0].Status != domain.ClaimVerified {
		t.Fatalf("expected case-folded verified, got %s", claims[0].Status)
	}
	if claims[1].Status != domain.ClaimQuestionable {
		t.Fatalf("expected trimmed questionable, got %s", claims[1].Status)
	}
	if claims[2].Status != domain.ClaimUnverified {
		t.Fatalf("expected unknown status degraded to unverified, got %s", claims[2].Status)
	}
}

func TestTransformClaimsEvidenceCount(t *testing.T) {
	records := []domain.AnalysisClaim{
		{MatchDetails: &domain.MatchDetails{CSVMatch: true, ToleranceCheck: true, MatchedData: map[string]any{"row": 3}}},
		{MatchDetails: &domain.MatchDetails{CSVMatch: true}},
		{MatchDetails: nil},
	}

	claims := transformClaims(records, "doc-1")
	if claims[0].Evidence != 3 || claims[1].Evidence != 1 || claims[2].Evidence != 0 {
		t.Fatalf("unexpected evidence counts: %d %d %d",
			claims[0].Evidence, claims[1].Evidence, claims[2].Evidence)
	}
}

func TestTransformClaimsCategoryFromMetric(t *testing.T) {
	records := []domain.AnalysisClaim{
		{ExtractedData: domain.ExtractedData{Metric: "Water Usage"}},
	}
	claims := transformClaims(records, "doc-1")
	if claims[0].Category != "water usage" {
		t.Fatalf("expected lowercased metric, got %q", claims[0].Category)
	}
}

func TestTransformClaimsEmptyInput(t *testing.T) {
	if claims := transformClaims(nil, "doc-1"); len(claims) != 0 {
		t.Fatalf("expected empty slice, got %d", len(claims))
	}
}
