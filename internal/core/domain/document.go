package domain

import "time"

type DocumentStatus string

const (
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentError      DocumentStatus = "error"
	DocumentCancelled  DocumentStatus = "cancelled"
)

type ClaimStatus string

const (
	ClaimVerified     ClaimStatus = "verified"
	ClaimQuestionable ClaimStatus = "questionable"
	ClaimUnverified   ClaimStatus = "unverified"
)

// Document is the persisted entity for one analyzed file. Summary is never
// stored; read APIs recompute it from the claims on every call.
type Document struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Filename       string         `json:"filename"`
	CompanyName    string         `json:"company_name,omitempty"`
	UploadDate     time.Time      `json:"upload_date"`
	Status         DocumentStatus `json:"status"`
	Size           int64          `json:"size"`
	Pages          int            `json:"pages"`
	ProcessingMode string         `json:"processing_mode,omitempty"`
	Claims         []Claim        `json:"claims"`
	Summary        *Summary       `json:"summary,omitempty"`
	ErrorCode      ErrorCode      `json:"error_code,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	ProcessingTime float64        `json:"processing_time,omitempty"`
	TotalSentences int            `json:"total_sentences,omitempty"`
}

// Claim is a single extracted assertion plus its verification outcome.
// DocumentID and DocumentTitle are denormalized onto the claim at read time.
type Claim struct {
	ID            string      `json:"id"`
	Text          string      `json:"text"`
	Category      string      `json:"category"`
	Confidence    float64     `json:"confidence"`
	Status        ClaimStatus `json:"status"`
	Evidence      int         `json:"evidence"`
	Reasoning     string      `json:"reasoning"`
	DocumentID    string      `json:"document_id"`
	DocumentTitle string      `json:"document_title,omitempty"`
}

// Summary holds the derived claim statistics for one document or for the
// whole store. Flagged is always questionable + unverified.
type Summary struct {
	TotalClaims  int `json:"total_claims"`
	Verified     int `json:"verified"`
	Questionable int `json:"questionable"`
	Unverified   int `json:"unverified"`
	Flagged      int `json:"flagged"`
}

// DocumentPatch carries the optional fields a status update may set alongside
// the transition itself. Zero-valued fields are left untouched.
type DocumentPatch struct {
	Claims         []Claim
	CompanyName    string
	ErrorCode      ErrorCode
	ErrorMessage   string
	ProcessingTime float64
	TotalSentences int
	Pages          int
	Size           int64
}

// ClampConfidence bounds a confidence score to [0,1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimVerified, ClaimQuestionable, ClaimUnverified:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further document status transition may occur.
func (s DocumentStatus) Terminal() bool {
	return s == DocumentCompleted || s == DocumentError || s == DocumentCancelled
}
