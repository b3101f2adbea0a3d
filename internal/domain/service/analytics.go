package service

import (
	"MarketPulse/internal/domain/models"
)

// SentimentClassifier turns global metrics and the fear/greed index into labeled statements.
type SentimentClassifier interface {
	Classify(global *models.GlobalMetrics, index models.SentimentIndex) []string
}

// MovementDetector compares the watch-list between the current assets and the previous snapshot.
type MovementDetector interface {
	Detect(current []models.AssetQuote, previous *models.MarketSnapshot) []string
}

// InsightEngine derives market insights and recommendations from one snapshot.
type InsightEngine interface {
	Insights(snap *models.MarketSnapshot) []string
	Recommendations(snap *models.MarketSnapshot) []string
}

// ReportRenderer turns reports into channel markup.
type ReportRenderer interface {
	Render(r models.DigestReport) string
	RenderError(err error) string
}
