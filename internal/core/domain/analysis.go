package domain

// Types mirroring the analysis service response after shape validation.
// Claims arrive in the service's own record layout and are transformed into
// internal Claims by the orchestrator, with defaults for every missing
// optional field.

type AnalysisResult struct {
	DocumentInfo AnalysisDocumentInfo `json:"document_info"`
	Claims       []AnalysisClaim      `json:"claims"`
	Summary      AnalysisSummary      `json:"summary"`
	Status       string               `json:"status"`
}

type AnalysisDocumentInfo struct {
	Filename       string  `json:"filename"`
	CompanyName    string  `json:"company_name"`
	TotalSentences int     `json:"total_sentences"`
	ProcessingTime float64 `json:"processing_time"`
	ProcessedAt    string  `json:"processed_at,omitempty"`
	FileSizeMB     float64 `json:"file_size_mb,omitempty"`
}

type AnalysisClaim struct {
	ID                     any            `json:"id"`
	Text                   string         `json:"text"`
	Confidence             float64        `json:"confidence"`
	ExtractedData          ExtractedData  `json:"extracted_data"`
	VerificationStatus     string         `json:"verification_status"`
	VerificationConfidence float64        `json:"verification_confidence"`
	MatchDetails           *MatchDetails  `json:"match_details"`
}

type ExtractedData struct {
	Metric     string `json:"metric"`
	Value      string `json:"value"`
	Unit       string `json:"unit"`
	Year       string `json:"year"`
	Percentage string `json:"percentage"`
}

type MatchDetails struct {
	CSVMatch       bool   `json:"csv_match"`
	ToleranceCheck bool   `json:"tolerance_check"`
	Reasoning      string `json:"reasoning"`
	MatchedData    any    `json:"matched_data"`
}

type AnalysisSummary struct {
	TotalClaims      int     `json:"total_claims"`
	Verified         int     `json:"verified"`
	Questionable     int     `json:"questionable"`
	Unverified       int     `json:"unverified"`
	VerificationRate float64 `json:"verification_rate,omitempty"`
}

// Health is the liveness report from the analysis service.
type Health struct {
	Healthy    bool              `json:"healthy"`
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
	Detail     string            `json:"detail,omitempty"`
}
