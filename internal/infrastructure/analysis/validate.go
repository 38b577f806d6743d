package analysis

import "encoding/json"

// ValidateResult checks the structural contract of an analysis response:
// all four top-level keys present, nested filename/company fields present,
// claims is a sequence, and the four summary counters are numeric. Domain
// semantics (claim text, status values) are the producing service's
// responsibility and are deliberately not inspected here.
func ValidateResult(payload map[string]any) bool {
	if payload == nil {
		return false
	}
	for _, key := range []string{"document_info", "claims", "summary", "status"} {
		if _, ok := payload[key]; !ok {
			return false
		}
	}

	info, ok := payload["document_info"].(map[string]any)
	if !ok {
		return false
	}
	if _, ok := info["filename"].(string); !ok {
		return false
	}
	if _, ok := info["company_name"].(string); !ok {
		return false
	}

	if _, ok := payload["claims"].([]any); !ok {
		return false
	}

	summary, ok := payload["summary"].(map[string]any)
	if !ok {
		return false
	}
	for _, counter := range []string{"total_claims", "verified", "questionable", "unverified"} {
		if !isNumber(summary[counter]) {
			return false
		}
	}
	return true
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, json.Number:
		return true
	default:
		return false
	}
}
