package usecase

import (
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	domsvc "MarketPulse/internal/domain/service"
	"MarketPulse/internal/services/report"
)

// DigestComposer builds the analytics digest. It holds no state between calls:
// the previous snapshot comes in through AnalysisState and the next one goes out the same way.
type DigestComposer struct {
	classifier domsvc.SentimentClassifier
	detector   domsvc.MovementDetector
	engine     domsvc.InsightEngine
	renderer   domsvc.ReportRenderer
	now        func() time.Time
}

func NewDigestComposer(classifier domsvc.SentimentClassifier, detector domsvc.MovementDetector, engine domsvc.InsightEngine, renderer domsvc.ReportRenderer) *DigestComposer {
	return &DigestComposer{
		classifier: classifier,
		detector:   detector,
		engine:     engine,
		renderer:   renderer,
		now:        time.Now,
	}
}

// Compose returns the report and the state to use next time. On error state is returned unchanged.
func (c *DigestComposer) Compose(state models.AnalysisState, data models.MarketData) (models.DigestReport, models.AnalysisState, error) {
	if !data.Listing.Available() || len(data.Listing.Value) == 0 {
		cause := data.Listing.Err
		if cause == nil {
			cause = models.ErrEmptyListing
		}
		return models.DigestReport{}, state, fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, cause)
	}

	ts := data.FetchedAt
	if ts.IsZero() {
		ts = c.now().UTC()
	}
	global := data.GlobalPtr()
	snap := models.NewMarketSnapshot(ts, data.Listing.Value, global, data.SentimentOrDefault())

	rep := models.DigestReport{Kind: models.ReportDigest, GeneratedAt: ts}
	add := func(name models.SectionName, lines []string) {
		if len(lines) > 0 {
			rep.Sections = append(rep.Sections, models.Section{Name: name, Lines: lines})
		}
	}
	add(models.SectionSentiment, c.classifier.Classify(snap.Global, snap.Sentiment))
	add(models.SectionMovements, c.detector.Detect(snap.Assets, state.Snapshot))
	add(models.SectionInsights, c.engine.Insights(snap))
	add(models.SectionRecommendations, c.engine.Recommendations(snap))
	add(models.SectionCurrentMetrics, report.CurrentMetricsLines(snap.Global, snap.Sentiment))

	return rep, models.AnalysisState{Snapshot: snap, UpdatedAt: ts}, nil
}

// Generate renders the digest. On failure text is the single error line and state is unchanged.
func (c *DigestComposer) Generate(state models.AnalysisState, data models.MarketData) (string, models.AnalysisState, error) {
	rep, next, err := c.Compose(state, data)
	if err != nil {
		return c.renderer.RenderError(err), state, err
	}
	return c.renderer.Render(rep), next, nil
}
