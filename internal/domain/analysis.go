package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sentiment is the classifier's reading of the customer's tone.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentNegative Sentiment = "NEGATIVE"
)

func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Classification is the raw suggestion returned by a classifier backend.
// Confidence is the backend's certainty in [0,1].
type Classification struct {
	Category   string
	Priority   VocPriority
	Sentiment  Sentiment
	Keywords   []string
	Summary    string
	Confidence float64
}

// AnalysisResult is the triage recommendation attached to a VOC. It is
// advisory only: the authoritative category/priority stay untouched until a
// human applies them.
type AnalysisResult struct {
	VocID      uuid.UUID
	Category   string
	Priority   VocPriority
	Sentiment  Sentiment
	Keywords   []string
	Summary    string
	Confidence float64
	// LowConfidence marks results below the configured threshold. They are
	// still returned so downstream consumers can decide whether to surface
	// them.
	LowConfidence bool
	AnalyzedAt    time.Time
}
