package model

import "time"

// Report is the complete analysis artifact for a single URL, file or text
type Report struct {
	Subject    string      `json:"subject"`
	Source     Source      `json:"source"`
	AnalyzedAt time.Time   `json:"analyzedAt"`
	FetchMeta  *FetchMeta  `json:"fetchMeta,omitempty"`
	Language   string      `json:"language,omitempty"` // ISO 639-3
	Result     ScoreResult `json:"result"`
	CitedURLs  []string    `json:"citedUrls,omitempty"` // URLs appearing in the analysed text

	LLM *LLMSummary `json:"llm,omitempty"` // Optional explanation (separate, never affects score)
}

// Source describes where analysed content came from
type Source struct {
	URL      string `json:"url,omitempty"`
	Title    string `json:"title,omitempty"`
	Domain   string `json:"domain,omitempty"`
	FileName string `json:"fileName,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
	FileType string `json:"fileType,omitempty"`
}

// FetchMeta contains HTTP metadata from fetching the source
type FetchMeta struct {
	StatusCode   int               `json:"statusCode"`
	ContentType  string            `json:"contentType,omitempty"`
	LastModified string            `json:"lastModified,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
}

// Signal is one applied scoring adjustment with its transparent inputs
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Delta       float64                `json:"delta"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies the rule that produced a signal
type SignalType string

const (
	SignalBaseline          SignalType = "baseline"
	SignalIndicatorBalance  SignalType = "indicator_balance"  // Credibility vs misinformation cues
	SignalContentLength     SignalType = "content_length"     // Very short or detailed text
	SignalShouting          SignalType = "shouting"           // Excessive capital letters
	SignalPunctuation       SignalType = "punctuation"        // !!! and ??? bursts
	SignalHedging           SignalType = "hedging"            // Weasel words
	SignalSourcing          SignalType = "sourcing"           // URLs, citations, attributions
	SignalFactualLanguage   SignalType = "factual_language"   // Reporting phrases
	SignalQuotations        SignalType = "quotations"         // Quoted statements
	SignalDomainCredibility SignalType = "domain_credibility" // Blend with stored host rating
	SignalKnowledgeMatch    SignalType = "knowledge_match"    // Exact match against stored examples
)

// SignalSeverity indicates the direction and weight of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// SeverityFor maps an adjustment to a severity
func SeverityFor(delta float64) SignalSeverity {
	switch {
	case delta <= -20:
		return SeverityCritical
	case delta < 0:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// LLMSummary contains the optional LLM-generated explanation
// CRITICAL: This never affects scoring and is clearly separated
type LLMSummary struct {
	Enabled        bool     `json:"enabled"`
	Provider       string   `json:"provider,omitempty"` // openai, ollama
	Model          string   `json:"model,omitempty"`
	StrictEvidence bool     `json:"strictEvidence"`
	SummaryMD      string   `json:"summaryMd,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}
