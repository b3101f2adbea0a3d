package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/domain/repository/mock"
	mid "MarketPulse/internal/middleware"
	"MarketPulse/internal/repository"
	"MarketPulse/internal/service/telegram"
	"MarketPulse/internal/services/analytics"
	"MarketPulse/internal/services/report"
)

type cycleFixture struct {
	cycle     *DigestCycle
	store     *repository.MemoryDigestStore
	notifier  *mock.MockNotifier
	publisher *mock.MockEventPublisher
	crypto    *stubCrypto
}

func newCycleFixture(t *testing.T, equities stubEquities, opts ...CycleOption) *cycleFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &cycleFixture{
		store:     repository.NewMemoryDigestStore(),
		notifier:  mock.NewMockNotifier(ctrl),
		publisher: mock.NewMockEventPublisher(ctrl),
		crypto:    okCrypto(),
	}
	rec := newRecorder()
	collector := NewMarketCollector(f.crypto, stubSentiment{idx: models.SentimentIndex{Value: 62, Classification: "Greed"}}, equities, rec, nil,
		WithOverviewSources("PAXG", report.DefaultEquities))
	pipe := mid.NewDeliveryPipeline(f.notifier, rec, mid.WithSpacing(0), mid.WithMaxAttempts(1))
	f.cycle = NewDigestCycle(collector, newComposer(t), report.NewRenderer("MarketPulse"), pipe, f.store, f.publisher, rec, nil, opts...)
	return f
}

func TestCycleDeliversAndAdvancesState(t *testing.T) {
	t.Parallel()

	// Arrange
	f := newCycleFixture(t, stubEquities{})
	var texts []string
	f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, text string) error {
			texts = append(texts, text)
			return nil
		}).Times(2)
	var events []models.CycleEvent
	f.publisher.EXPECT().PublishCycle(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, evt models.CycleEvent) error {
			events = append(events, evt)
			return nil
		}).Times(2)

	// Act
	require.NoError(t, f.cycle.RunOnce(t.Context()))
	first, ok := f.store.Latest()
	require.True(t, ok)

	f.crypto.listings = func(context.Context) ([]models.AssetQuote, error) { return listing(60000), nil }
	require.NoError(t, f.cycle.RunOnce(t.Context()))

	// Assert
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], analytics.BaselineStatement)
	assert.Contains(t, texts[1], "<b>BTC</b>: +20.0%")
	assert.False(t, first.HasBaseline)

	rec, _ := f.store.Latest()
	assert.True(t, rec.HasBaseline)
	assert.Equal(t, 1, rec.Messages)
	assert.Equal(t, 3, rec.Assets)
	assert.Equal(t, models.CycleOK, rec.Status)

	require.Len(t, events, 2)
	assert.Equal(t, models.CycleOK, events[1].Status)
	assert.Equal(t, 3, events[1].Assets)
	assert.Equal(t, 60000.0, f.cycle.State().Snapshot.Assets[0].Price)
}

func TestCycleUpstreamFailureSendsErrorLine(t *testing.T) {
	t.Parallel()

	f := newCycleFixture(t, stubEquities{})
	f.crypto.listings = func(context.Context) ([]models.AssetQuote, error) { return nil, errors.New("cmc 500") }

	var sent string
	f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, text string) error {
			sent = text
			return nil
		})
	f.publisher.EXPECT().PublishCycle(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, evt models.CycleEvent) error {
			assert.Equal(t, models.CycleFailed, evt.Status)
			assert.Equal(t, models.SourceUnavailable, evt.Sources["listing"])
			assert.Contains(t, evt.Error, "cmc 500")
			return nil
		})

	err := f.cycle.RunOnce(t.Context())

	assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
	assert.True(t, report.IsErrorText(sent))
	assert.False(t, f.cycle.State().HasBaseline())
	_, ok := f.store.Latest()
	assert.False(t, ok)
}

func TestCycleSendsOverviewsAfterDigest(t *testing.T) {
	t.Parallel()

	f := newCycleFixture(t,
		stubEquities{err: errors.New("yahoo 429")},
		WithOverviews(report.NewOverviewBuilder(report.DefaultMustInclude, report.DefaultTopN), true, true),
	)
	f.crypto.quote = func(context.Context, string) (models.AssetQuote, error) {
		return models.AssetQuote{}, errors.New("no paxg")
	}

	var texts []string
	f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, text string) error {
			texts = append(texts, text)
			return nil
		}).Times(3)
	f.publisher.EXPECT().PublishCycle(gomock.Any(), gomock.Any()).Return(nil)

	require.NoError(t, f.cycle.RunOnce(t.Context()))

	require.Len(t, texts, 3)
	assert.True(t, strings.HasPrefix(texts[0], "🔥 <b>АНАЛИТИКА КРИПТОРЫНКА</b>"))
	assert.Contains(t, texts[1], "<b>BTC</b> (Bitcoin)")
	assert.True(t, report.IsErrorText(texts[2]))

	rec, _ := f.store.Latest()
	assert.Equal(t, models.CycleDegraded, rec.Status)
	assert.Equal(t, 3, rec.Messages)
}

func TestCycleDeliveryFailureKeepsNewBaseline(t *testing.T) {
	t.Parallel()

	f := newCycleFixture(t, stubEquities{})
	f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(&telegram.APIError{Code: 400, Description: "chat not found"})
	f.publisher.EXPECT().PublishCycle(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	err := f.cycle.RunOnce(t.Context())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	assert.True(t, f.cycle.State().HasBaseline())
	rec, ok := f.store.Latest()
	require.True(t, ok)
	assert.Equal(t, models.CycleFailed, rec.Status)
	assert.Zero(t, rec.Messages)
}

func TestOutageReportedOncePerOutage(t *testing.T) {
	t.Parallel()

	// Arrange: the listing fails for an hour of 5m retries, recovers once, then fails again.
	f := newCycleFixture(t, stubEquities{})
	var listingCalls int
	f.crypto.listings = func(context.Context) ([]models.AssetQuote, error) {
		listingCalls++
		if listingCalls == 13 {
			return listing(60000), nil
		}
		return nil, errors.New("cmc 500")
	}

	var errorLines, digests int
	f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, text string) error {
			if report.IsErrorText(text) {
				errorLines++
			} else {
				digests++
			}
			return nil
		}).AnyTimes()
	f.publisher.EXPECT().PublishCycle(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	s := NewScheduler(f.cycle, time.Hour, 5*time.Minute, nil)
	ctx, cancel := context.WithCancel(t.Context())
	var outage time.Duration
	s.wait = func(ctx context.Context, d time.Duration) error {
		if listingCalls < 13 {
			outage += d
		}
		if listingCalls >= 14 {
			cancel()
		}
		return ctx.Err()
	}

	// Act
	require.NoError(t, s.Run(ctx))

	// Assert
	assert.Equal(t, time.Hour, outage)
	assert.Equal(t, 14, listingCalls)
	assert.Equal(t, 1, digests)
	assert.Equal(t, 2, errorLines, "one notice per outage")
}

func TestOutageStillSendsEquitiesOverview(t *testing.T) {
	t.Parallel()

	// Arrange
	f := newCycleFixture(t,
		stubEquities{quotes: []models.EquityQuote{{Symbol: "NVDA", Price: 900, Change: 6}}},
		WithOverviews(report.NewOverviewBuilder(report.DefaultMustInclude, report.DefaultTopN), true, true),
	)
	f.crypto.listings = func(context.Context) ([]models.AssetQuote, error) { return nil, errors.New("cmc 500") }
	f.crypto.quote = func(_ context.Context, symbol string) (models.AssetQuote, error) {
		return models.AssetQuote{Symbol: symbol, Price: 2345.6, Change24h: 0.4}, nil
	}

	var texts []string
	f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, text string) error {
			texts = append(texts, text)
			return nil
		}).Times(2)
	f.publisher.EXPECT().PublishCycle(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	// Act
	first := f.cycle.RunOnce(t.Context())
	second := f.cycle.RunOnce(t.Context())

	// Assert
	assert.ErrorIs(t, first, models.ErrUpstreamUnavailable)
	assert.ErrorIs(t, second, models.ErrUpstreamUnavailable)
	require.Len(t, texts, 2)
	assert.True(t, report.IsErrorText(texts[0]))
	assert.Contains(t, texts[1], "ЗОЛОТО (PAXG)")
	assert.Contains(t, texts[1], "<b>NVDA</b>")
	assert.NotContains(t, texts[1], "КРИПТО РЫНОК")
}

func TestOutageNoticeRetriedWhenUndelivered(t *testing.T) {
	t.Parallel()

	f := newCycleFixture(t, stubEquities{})
	f.crypto.listings = func(context.Context) ([]models.AssetQuote, error) { return nil, errors.New("cmc 500") }
	gomock.InOrder(
		f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(&telegram.APIError{Code: 400, Description: "chat not found"}),
		f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil),
	)
	f.publisher.EXPECT().PublishCycle(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	for i := 0; i < 3; i++ {
		assert.Error(t, f.cycle.RunOnce(t.Context()))
	}
}
