// Package memory holds the process-wide registry of analyzed documents.
// The store is explicitly constructed and injected; there are no package
// globals. Nothing here survives the process, which is deliberate.
package memory

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verityscan/verityscan/internal/core/domain"
)

type record struct {
	doc   domain.Document
	valid bool
}

// Store keeps documents most-recent-first. Every mutation runs as one
// uninterrupted critical section, so two jobs' updates can never interleave
// within a single read-modify-write.
type Store struct {
	mu      sync.RWMutex
	records []*record
	byID    map[string]*record
	schemas *schemaSet
}

func NewStore() (*Store, error) {
	schemas, err := newSchemaSet()
	if err != nil {
		return nil, fmt.Errorf("build store schemas: %w", err)
	}
	return &Store{
		byID:    make(map[string]*record),
		schemas: schemas,
	}, nil
}

// AddDocument normalizes and inserts a document at the front of the registry.
// A missing ID is assigned; a missing title is derived from the filename.
// Schema-invalid input is quarantined rather than rejected: it stays stored
// and addressable, bulk reads skip it, targeted lookups report it.
func (s *Store) AddDocument(doc domain.Document) domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Title == "" {
		doc.Title = titleFromFilename(doc.Filename)
	}
	if doc.Status == "" {
		doc.Status = domain.DocumentCompleted
	}
	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now().UTC()
	}
	normalizeClaims(&doc)

	rec := &record{doc: doc, valid: s.schemas.documentValid(doc)}
	s.records = append([]*record{rec}, s.records...)
	s.byID[doc.ID] = rec

	return s.view(rec)
}

// UpdateDocumentStatus applies a status transition plus patch to an existing
// document. The record is re-validated afterwards so a bad patch quarantines
// it instead of corrupting bulk reads.
func (s *Store) UpdateDocumentStatus(id string, status domain.DocumentStatus, patch *domain.DocumentPatch) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return domain.Document{}, notFoundError("update document", id)
	}

	rec.doc.Status = status
	if patch != nil {
		if patch.Claims != nil {
			rec.doc.Claims = patch.Claims
		}
		if patch.CompanyName != "" {
			rec.doc.CompanyName = patch.CompanyName
		}
		if patch.ErrorCode != "" {
			rec.doc.ErrorCode = patch.ErrorCode
		}
		if patch.ErrorMessage != "" {
			rec.doc.ErrorMessage = patch.ErrorMessage
		}
		if patch.ProcessingTime > 0 {
			rec.doc.ProcessingTime = patch.ProcessingTime
		}
		if patch.TotalSentences > 0 {
			rec.doc.TotalSentences = patch.TotalSentences
		}
		if patch.Pages > 0 {
			rec.doc.Pages = patch.Pages
		}
		if patch.Size > 0 {
			rec.doc.Size = patch.Size
		}
	}
	normalizeClaims(&rec.doc)
	rec.valid = s.schemas.documentValid(rec.doc)

	return s.view(rec), nil
}

// GetDocumentByID is the strict lookup: unlike the bulk reads it surfaces a
// quarantined record as an explicit error.
func (s *Store) GetDocumentByID(id string) (domain.Document, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Document{}, domain.WrapError(domain.ErrInvalidInput, "get document",
			domain.NewProcessingError(domain.CodeInvalidDocumentID, "document id is required", ""))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return domain.Document{}, notFoundError("get document", id)
	}
	if !rec.valid {
		return domain.Document{}, domain.WrapError(domain.ErrMalformedData, "get document",
			domain.NewProcessingError(domain.CodeMalformedDocument,
				fmt.Sprintf("document %s failed schema validation", id), ""))
	}
	return s.view(rec), nil
}

// AllDocuments returns every schema-valid document, most recent first.
// Quarantined records are silently dropped in favor of partial availability.
func (s *Store) AllDocuments() []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.records))
	for _, rec := range s.records {
		if !rec.valid {
			continue
		}
		docs = append(docs, s.view(rec))
	}
	return docs
}

// AllClaims flattens the claims of every schema-valid document, dropping
// claims that fail their own schema.
func (s *Store) AllClaims() []domain.Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var claims []domain.Claim
	for _, rec := range s.records {
		if !rec.valid {
			continue
		}
		claims = append(claims, s.claimsView(rec)...)
	}
	return claims
}

// FilterClaimsByStatus scopes AllClaims by status and optionally by document.
// Unknown status values behave as "all" rather than erroring.
func (s *Store) FilterClaimsByStatus(status string, documentID string) []domain.Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := domain.ClaimStatus(strings.ToLower(strings.TrimSpace(status)))
	matchAll := !wanted.Valid()

	var claims []domain.Claim
	for _, rec := range s.records {
		if !rec.valid {
			continue
		}
		if documentID != "" && rec.doc.ID != documentID {
			continue
		}
		for _, claim := range s.claimsView(rec) {
			if matchAll || claim.Status == wanted {
				claims = append(claims, claim)
			}
		}
	}
	return claims
}

// SearchDocuments matches a case-insensitive substring against title or
// filename.
func (s *Store) SearchDocuments(query string) []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(query))

	var docs []domain.Document
	for _, rec := range s.records {
		if !rec.valid {
			continue
		}
		if needle == "" ||
			strings.Contains(strings.ToLower(rec.doc.Title), needle) ||
			strings.Contains(strings.ToLower(rec.doc.Filename), needle) {
			docs = append(docs, s.view(rec))
		}
	}
	return docs
}

// OverallStats recomputes the aggregate summary across every schema-valid
// document. Derived values are never cached.
func (s *Store) OverallStats() domain.Summary {
	return Summarize(s.AllClaims())
}

// Clear drops every record. Documents are never deleted individually.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.byID = make(map[string]*record)
}

// Len reports the number of stored records including quarantined ones.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Summarize computes the derived statistics for a claim set. It is total on
// any input and returns all zeroes for an empty one.
func Summarize(claims []domain.Claim) domain.Summary {
	var sum domain.Summary
	for _, claim := range claims {
		switch claim.Status {
		case domain.ClaimVerified:
			sum.Verified++
		case domain.ClaimQuestionable:
			sum.Questionable++
		case domain.ClaimUnverified:
			sum.Unverified++
		default:
			continue
		}
		sum.TotalClaims++
	}
	sum.Flagged = sum.Questionable + sum.Unverified
	return sum
}

// view materializes the read model for one record: fresh copy, denormalized
// claims, recomputed summary. Callers must hold at least the read lock.
func (s *Store) view(rec *record) domain.Document {
	doc := rec.doc
	doc.Claims = s.claimsView(rec)
	summary := Summarize(doc.Claims)
	doc.Summary = &summary
	return doc
}

// claimsView copies the schema-valid claims of a record, resolving the
// document back-reference and denormalized title at read time.
func (s *Store) claimsView(rec *record) []domain.Claim {
	claims := make([]domain.Claim, 0, len(rec.doc.Claims))
	for _, claim := range rec.doc.Claims {
		if !s.schemas.claimValid(claim) {
			continue
		}
		claim.DocumentID = rec.doc.ID
		claim.DocumentTitle = rec.doc.Title
		claims = append(claims, claim)
	}
	return claims
}

func normalizeClaims(doc *domain.Document) {
	for i := range doc.Claims {
		doc.Claims[i].Confidence = domain.ClampConfidence(doc.Claims[i].Confidence)
		if doc.Claims[i].Evidence < 0 {
			doc.Claims[i].Evidence = 0
		}
	}
}

func titleFromFilename(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return filename
	}
	return base
}

func notFoundError(operation, id string) error {
	return domain.WrapError(domain.ErrDocumentNotFound, operation,
		domain.NewProcessingError(domain.CodeDocumentNotFound,
			fmt.Sprintf("document %s does not exist", id), ""))
}
