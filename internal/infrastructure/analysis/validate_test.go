package analysis

import (
	"encoding/json"
	"testing"
)

func validPayload() map[string]any {
	var payload map[string]any
	if err := json.Unmarshal([]byte(validResultJSON), &payload); err != nil {
		panic(err)
	}
	return payload
}

func TestValidateResultAcceptsWellFormedPayload(t *testing.T) {
	if !ValidateResult(validPayload()) {
		t.Fatal("expected valid payload to pass")
	}
}

func TestValidateResultRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{
			name:   "nil payload handled by caller",
			mutate: nil,
		},
		{
			name:   "missing top level key",
			mutate: func(p map[string]any) { delete(p, "summary") },
		},
		{
			name:   "document_info wrong type",
			mutate: func(p map[string]any) { p["document_info"] = "nope" },
		},
		{
			name: "missing filename",
			mutate: func(p map[string]any) {
				delete(p["document_info"].(map[string]any), "filename")
			},
		},
		{
			name: "missing company name",
			mutate: func(p map[string]any) {
				delete(p["document_info"].(map[string]any), "company_name")
			},
		},
		{
			name:   "claims not a sequence",
			mutate: func(p map[string]any) { p["claims"] = map[string]any{} },
		},
		{
			name: "summary counter missing",
			mutate: func(p map[string]any) {
				delete(p["summary"].(map[string]any), "verified")
			},
		},
		{
			name: "summary counter wrong type",
			mutate: func(p map[string]any) {
				p["summary"].(map[string]any)["total_claims"] = "1"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mutate == nil {
				if ValidateResult(nil) {
					t.Fatal("expected nil payload to fail")
				}
				return
			}
			payload := validPayload()
			tt.mutate(payload)
			if ValidateResult(payload) {
				t.Fatal("expected payload to fail validation")
			}
		})
	}
}

func TestValidateResultEmptyClaimsAllowed(t *testing.T) {
	payload := validPayload()
	payload["claims"] = []any{}
	if !ValidateResult(payload) {
		t.Fatal("expected empty claims list to pass")
	}
}
