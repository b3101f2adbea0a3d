package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	domsvc "MarketPulse/internal/domain/service"
	mid "MarketPulse/internal/middleware"
	"MarketPulse/internal/services/report"
	"MarketPulse/pkg/logger"
)

// DigestCycle runs one full collect, compose, deliver round. It is the only owner of AnalysisState.
type DigestCycle struct {
	collector *MarketCollector
	composer  *DigestComposer
	overviews *report.OverviewBuilder
	renderer  domsvc.ReportRenderer
	delivery  *mid.DeliveryPipeline
	store     drepo.DigestStore
	publisher drepo.EventPublisher
	metrics   drepo.Metrics
	log       *logger.Logger

	cryptoOverview   bool
	equitiesOverview bool

	mu    sync.Mutex
	state models.AnalysisState
	now   func() time.Time

	// set once the error notice of the current outage reached the channel
	outageNotified bool
}

type CycleOption func(*DigestCycle)

// WithOverviews enables the supplementary reports sent after the digest.
// A nil builder disables both.
func WithOverviews(b *report.OverviewBuilder, crypto, equities bool) CycleOption {
	return func(c *DigestCycle) {
		c.overviews = b
		c.cryptoOverview = crypto && b != nil
		c.equitiesOverview = equities && b != nil
	}
}

func NewDigestCycle(
	collector *MarketCollector,
	composer *DigestComposer,
	renderer domsvc.ReportRenderer,
	delivery *mid.DeliveryPipeline,
	store drepo.DigestStore,
	publisher drepo.EventPublisher,
	metrics drepo.Metrics,
	log *logger.Logger,
	opts ...CycleOption,
) *DigestCycle {
	if log == nil {
		log = logger.Nop()
	}
	c := &DigestCycle{
		collector: collector,
		composer:  composer,
		renderer:  renderer,
		delivery:  delivery,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunOnce executes a cycle. Calls are serialized. The returned error tells the scheduler to retry early.
func (c *DigestCycle) RunOnce(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.now()
	data := c.collector.Collect(ctx)

	hadBaseline := c.state.HasBaseline()
	text, next, genErr := c.composer.Generate(c.state, data)
	// advance before delivery so a failed send keeps the new baseline
	c.state = next

	var texts []string
	notice := genErr != nil && !c.outageNotified
	switch {
	case genErr == nil:
		texts = append(texts, text)
		texts = append(texts, c.overviewTexts(next.Snapshot, data)...)
	case notice:
		c.metrics.RecordError("upstream")
		c.log.Error("digest generation failed", logger.Error(genErr))
		texts = append(texts, text)
		texts = append(texts, c.equitiesOnly(data)...)
	default:
		c.metrics.RecordError("upstream")
		c.log.Error("digest generation failed, outage already reported", logger.Error(genErr))
	}

	sent, deliverErr := c.delivery.Deliver(ctx, texts...)
	switch {
	case genErr == nil:
		c.outageNotified = false
	case notice && sent > 0:
		c.outageNotified = true
	}
	if deliverErr != nil {
		c.metrics.RecordError("delivery")
		c.log.Error("digest delivery failed",
			logger.Int("sent", sent),
			logger.Int("total", len(texts)),
			logger.Error(deliverErr),
		)
	}

	status := cycleStatus(data, genErr, deliverErr)
	if genErr == nil {
		c.store.Save(models.DigestRecord{
			Text:        text,
			Messages:    sent,
			Status:      status,
			GeneratedAt: next.UpdatedAt,
			Assets:      len(next.Snapshot.Assets),
			HasBaseline: hadBaseline,
			Sources:     data.Statuses(),
		})
	}

	cycleErr := errors.Join(genErr, deliverErr)
	c.publish(ctx, start, status, sent, data, cycleErr)
	c.metrics.RecordCycle(status)
	c.metrics.RecordLatency("cycle", time.Since(start).Seconds())

	if cycleErr != nil {
		return fmt.Errorf("digest cycle: %w", cycleErr)
	}
	c.log.Info("digest cycle completed",
		logger.String("status", status),
		logger.Int("messages", sent),
		logger.Duration("duration", time.Since(start)),
	)
	return nil
}

// State returns a copy of the current analysis state.
func (c *DigestCycle) State() models.AnalysisState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *DigestCycle) overviewTexts(snap *models.MarketSnapshot, data models.MarketData) []string {
	var out []string
	if c.cryptoOverview {
		rep, err := c.overviews.CryptoOverview(snap, data.FetchedAt)
		out = append(out, c.renderOrError(models.ReportCryptoOverview, rep, err))
	}
	if c.equitiesOverview {
		rep, err := c.overviews.EquitiesOverview(data.Gold, data.Equities, data.FetchedAt)
		out = append(out, c.renderOrError(models.ReportEquities, rep, err))
	}
	return out
}

// equitiesOnly builds the equities overview while the crypto listing is down.
// Gold and equities come from other requests, so they may still be available.
func (c *DigestCycle) equitiesOnly(data models.MarketData) []string {
	if !c.equitiesOverview {
		return nil
	}
	rep, err := c.overviews.EquitiesOverview(data.Gold, data.Equities, data.FetchedAt)
	if err != nil {
		c.log.Warn("overview unavailable", logger.String("kind", string(models.ReportEquities)), logger.Error(err))
		return nil
	}
	return []string{c.renderer.Render(rep)}
}

func (c *DigestCycle) renderOrError(kind models.ReportKind, rep models.DigestReport, err error) string {
	if err != nil {
		c.log.Warn("overview unavailable", logger.String("kind", string(kind)), logger.Error(err))
		return c.renderer.RenderError(err)
	}
	return c.renderer.Render(rep)
}

func (c *DigestCycle) publish(ctx context.Context, start time.Time, status string, sent int, data models.MarketData, err error) {
	evt := models.CycleEvent{
		StartedAt:  start.UTC(),
		DurationMS: time.Since(start).Milliseconds(),
		Status:     status,
		Messages:   sent,
		Sources:    data.Statuses(),
	}
	if data.Listing.Available() {
		evt.Assets = len(data.Listing.Value)
	}
	if err != nil {
		evt.Error = err.Error()
	}
	if pubErr := c.publisher.PublishCycle(ctx, evt); pubErr != nil {
		c.metrics.RecordError("event_publish")
		c.log.Warn("cycle event not published", logger.Error(pubErr))
	}
}

func cycleStatus(data models.MarketData, genErr, deliverErr error) string {
	if genErr != nil || deliverErr != nil {
		return models.CycleFailed
	}
	for _, st := range data.Statuses() {
		if st != models.SourceFetched && st != models.SourceSkipped {
			return models.CycleDegraded
		}
	}
	return models.CycleOK
}
