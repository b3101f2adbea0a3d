package models

import "time"

// SectionName identifies a digest section. Rendering order is the order sections are appended.
type SectionName string

const (
	SectionSentiment       SectionName = "sentiment"
	SectionMovements       SectionName = "movements"
	SectionInsights        SectionName = "insights"
	SectionRecommendations SectionName = "recommendations"
	SectionCurrentMetrics  SectionName = "current_metrics"

	SectionMarketSummary SectionName = "market_summary"
	SectionTopAssets     SectionName = "top_assets"
	SectionCommodities   SectionName = "commodities"
	SectionEquities      SectionName = "equities"
)

// Section is a named list of pre-formatted lines.
type Section struct {
	Name  SectionName
	Lines []string
}

// ReportKind selects title and footer when rendering.
type ReportKind string

const (
	ReportDigest         ReportKind = "digest"
	ReportCryptoOverview ReportKind = "crypto_overview"
	ReportEquities       ReportKind = "equities_overview"
)

// DigestReport is immutable once built.
type DigestReport struct {
	Kind        ReportKind
	Sections    []Section
	GeneratedAt time.Time
}

// Section returns the named section, if present.
func (r DigestReport) Section(name SectionName) (Section, bool) {
	for _, s := range r.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// AnalysisState holds the previous snapshot used as the comparison baseline.
type AnalysisState struct {
	Snapshot  *MarketSnapshot
	UpdatedAt time.Time
}

func (s AnalysisState) HasBaseline() bool { return s.Snapshot != nil }

// DigestRecord is what the HTTP API exposes about the last cycle.
type DigestRecord struct {
	Text        string    `json:"text"`
	Messages    int       `json:"messages"`
	Status      string    `json:"status"`
	GeneratedAt time.Time `json:"generated_at"`
	Assets      int       `json:"assets"`
	HasBaseline bool      `json:"has_baseline"`

	Sources map[string]SourceStatus `json:"sources"`
}

// CycleEvent is emitted once per digest cycle.
type CycleEvent struct {
	StartedAt  time.Time               `json:"started_at"`
	DurationMS int64                   `json:"duration_ms"`
	Status     string                  `json:"status"`
	Assets     int                     `json:"assets"`
	Messages   int                     `json:"messages"`
	Sources    map[string]SourceStatus `json:"sources"`
	Error      string                  `json:"error,omitempty"`
}

const (
	CycleOK       = "ok"
	CycleDegraded = "degraded"
	CycleFailed   = "failed"
)
