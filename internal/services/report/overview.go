package report

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"time"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/services/analytics"
)

var (
	DefaultMustInclude = []string{"BTC", "ETH", "SOL"}
	DefaultEquities    = []string{"NVDA", "AAPL", "MSFT", "GOOGL", "AMZN", "META", "TSLA"}
)

const DefaultTopN = 10

// OverviewBuilder builds the supplementary crypto and equities reports.
type OverviewBuilder struct {
	mustInclude []string
	topN        int
}

func NewOverviewBuilder(mustInclude []string, topN int) *OverviewBuilder {
	if mustInclude == nil {
		mustInclude = DefaultMustInclude
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &OverviewBuilder{mustInclude: mustInclude, topN: topN}
}

// SelectTop keeps every must-include symbol present in assets and fills the rest of n slots by rank.
// The result is ordered by rank.
func SelectTop(assets []models.AssetQuote, mustInclude []string, n int) []models.AssetQuote {
	must := make(map[string]struct{}, len(mustInclude))
	for _, s := range mustInclude {
		must[s] = struct{}{}
	}

	ranked := make([]models.AssetQuote, len(assets))
	copy(ranked, assets)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Rank < ranked[j].Rank })

	var pinned, rest []models.AssetQuote
	for _, a := range ranked {
		if _, ok := must[a.Symbol]; ok {
			pinned = append(pinned, a)
		} else {
			rest = append(rest, a)
		}
	}

	slots := n - len(pinned)
	if slots < 0 {
		slots = 0
	}
	if slots > len(rest) {
		slots = len(rest)
	}
	out := append(pinned, rest[:slots]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

// CryptoOverview lists the top assets with the market summary header.
func (b *OverviewBuilder) CryptoOverview(snap *models.MarketSnapshot, now time.Time) (models.DigestReport, error) {
	if snap == nil || len(snap.Assets) == 0 {
		return models.DigestReport{}, fmt.Errorf("crypto overview: %w", models.ErrUpstreamUnavailable)
	}

	var summary []string
	if g := snap.Global; g != nil {
		summary = append(summary,
			"📊 <b>Общая капитализация:</b> "+analytics.FormatMagnitude(g.TotalMarketCap),
			fmt.Sprintf("📈 <b>Изменение 24ч:</b> %.2f%%", g.MarketCapChange),
		)
	}
	idx := snap.Sentiment
	summary = append(summary, fmt.Sprintf("%s <b>Индекс страха/жадности:</b> %d (%s)",
		analytics.SentimentGlyph(idx.Value), idx.Value, html.EscapeString(idx.Classification)))

	top := SelectTop(snap.Assets, b.mustInclude, b.topN)
	lines := make([]string, 0, len(top))
	for _, a := range top {
		lines = append(lines, assetBlock(a))
	}

	return models.DigestReport{
		Kind: models.ReportCryptoOverview,
		Sections: []models.Section{
			{Name: models.SectionMarketSummary, Lines: summary},
			{Name: models.SectionTopAssets, Lines: lines},
		},
		GeneratedAt: now,
	}, nil
}

// EquitiesOverview renders whichever of gold and equities is available.
// It fails only when both are missing.
func (b *OverviewBuilder) EquitiesOverview(gold models.SourceResult[models.AssetQuote], equities models.SourceResult[[]models.EquityQuote], now time.Time) (models.DigestReport, error) {
	rep := models.DigestReport{Kind: models.ReportEquities, GeneratedAt: now}

	if gold.Available() {
		g := gold.Value
		rep.Sections = append(rep.Sections, models.Section{
			Name: models.SectionCommodities,
			Lines: []string{
				"💰 " + analytics.FormatPrice(g.Price),
				fmt.Sprintf("%s %s (24h)", analytics.ChangeGlyph(g.Change24h), analytics.FormatSignedPercent(g.Change24h)),
			},
		})
	}

	if equities.Available() && len(equities.Value) > 0 {
		lines := make([]string, 0, len(equities.Value))
		for _, q := range equities.Value {
			lines = append(lines, equityBlock(q))
		}
		rep.Sections = append(rep.Sections, models.Section{Name: models.SectionEquities, Lines: lines})
	}

	if len(rep.Sections) == 0 {
		return models.DigestReport{}, fmt.Errorf("equities overview: %w", errors.Join(models.ErrUpstreamUnavailable, gold.Err, equities.Err))
	}
	return rep, nil
}

func assetBlock(a models.AssetQuote) string {
	s := fmt.Sprintf("%s <b>%s</b> (%s)\n💰 %s | %s %s\n📊 Cap: %s",
		analytics.DirectionGlyph(a.Change24h),
		html.EscapeString(a.Symbol),
		html.EscapeString(a.Name),
		analytics.FormatPrice(a.Price),
		analytics.ChangeGlyph(a.Change24h),
		analytics.FormatSignedPercent(a.Change24h),
		analytics.FormatMagnitude(a.MarketCap),
	)
	if a.Volume24h > 0 {
		s += " | Vol: " + analytics.FormatMagnitude(a.Volume24h)
	}
	return s
}

func equityBlock(q models.EquityQuote) string {
	s := fmt.Sprintf("%s <b>%s</b>\n💰 %s | %s %s",
		analytics.DirectionGlyph(q.Change),
		html.EscapeString(q.Symbol),
		analytics.FormatPrice(q.Price),
		analytics.ChangeGlyph(q.Change),
		analytics.FormatSignedPercent(q.Change),
	)
	if q.MarketCap > 0 {
		s += "\n📊 Cap: " + analytics.FormatMagnitude(q.MarketCap)
	}
	return s
}
