package memory

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/verityscan/verityscan/internal/core/domain"
)

// Admission-time schemas. Writes are validated once and quarantined when they
// fail, instead of re-filtering ad hoc on every read. Reads still honor the
// documented asymmetry: bulk reads skip quarantined records, targeted lookups
// fail loudly.

const documentSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "filename", "status"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "filename": {"type": "string", "minLength": 1},
    "status": {"enum": ["processing", "completed", "error", "cancelled"]},
    "size": {"type": "integer", "minimum": 0},
    "pages": {"type": "integer", "minimum": 0},
    "claims": {"type": "array"}
  }
}`

const claimSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["status"],
  "properties": {
    "status": {"enum": ["verified", "questionable", "unverified"]},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "evidence": {"type": "integer", "minimum": 0}
  }
}`

type schemaSet struct {
	document *jsonschema.Schema
	claim    *jsonschema.Schema
}

func newSchemaSet() (*schemaSet, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("document.schema.json", bytes.NewReader([]byte(documentSchemaJSON))); err != nil {
		return nil, fmt.Errorf("add document schema: %w", err)
	}
	if err := compiler.AddResource("claim.schema.json", bytes.NewReader([]byte(claimSchemaJSON))); err != nil {
		return nil, fmt.Errorf("add claim schema: %w", err)
	}

	document, err := compiler.Compile("document.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile document schema: %w", err)
	}
	claim, err := compiler.Compile("claim.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile claim schema: %w", err)
	}
	return &schemaSet{document: document, claim: claim}, nil
}

func (s *schemaSet) documentValid(doc domain.Document) bool {
	return validateAgainst(s.document, doc)
}

func (s *schemaSet) claimValid(claim domain.Claim) bool {
	return validateAgainst(s.claim, claim)
}

func validateAgainst(schema *jsonschema.Schema, v any) bool {
	raw, err := json.Marshal(v)
	if err != nil {
		return false
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return false
	}
	return schema.Validate(decoded) == nil
}
