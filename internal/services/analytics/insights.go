package analytics

import (
	"fmt"
	"math"

	"MarketPulse/internal/domain/models"
	domsvc "MarketPulse/internal/domain/service"
)

const (
	breadthWindow    = 10
	volatilityWindow = 20
)

// Engine derives insights and recommendations from a single snapshot.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Insights returns the volume insight followed by the breadth insight, each only when it applies.
func (e *Engine) Insights(snap *models.MarketSnapshot) []string {
	if snap == nil {
		return nil
	}
	var out []string
	if s, ok := volumeInsight(snap.Global); ok {
		out = append(out, s)
	}
	if s, ok := breadthInsight(snap.Top(breadthWindow)); ok {
		out = append(out, s)
	}
	return out
}

// Recommendations returns the fear/greed recommendation followed by the volatility one.
func (e *Engine) Recommendations(snap *models.MarketSnapshot) []string {
	if snap == nil {
		return nil
	}
	var out []string
	if s, ok := fearGreedRecommendation(snap.Sentiment.Value); ok {
		out = append(out, s)
	}
	if s, ok := volatilityRecommendation(snap.Top(volatilityWindow)); ok {
		out = append(out, s)
	}
	return out
}

// VolumeRatio is 24h volume as a percentage of market cap. ok is false when cap is not positive.
func VolumeRatio(g *models.GlobalMetrics) (float64, bool) {
	if g == nil || g.TotalMarketCap <= 0 {
		return 0, false
	}
	return g.TotalVolume24h / g.TotalMarketCap * 100, true
}

func volumeInsight(g *models.GlobalMetrics) (string, bool) {
	ratio, ok := VolumeRatio(g)
	if !ok {
		return "", false
	}
	switch {
	case ratio > 8:
		return fmt.Sprintf("🔥 Высокая торговая активность: объём %.1f%% от капитализации", ratio), true
	case ratio > 4:
		return fmt.Sprintf("📊 Умеренная торговая активность: объём %.1f%% от капитализации", ratio), true
	default:
		return fmt.Sprintf("💤 Низкая торговая активность: объём %.1f%% от капитализации", ratio), true
	}
}

// PositiveCount counts assets with a positive 24h change.
func PositiveCount(assets []models.AssetQuote) int {
	n := 0
	for _, a := range assets {
		if a.Change24h > 0 {
			n++
		}
	}
	return n
}

func breadthInsight(top []models.AssetQuote) (string, bool) {
	if len(top) == 0 {
		return "", false
	}
	pos := PositiveCount(top)
	switch {
	case pos >= 8:
		return fmt.Sprintf("💪 Сила альткоинов: %d из %d в плюсе", pos, len(top)), true
	case pos <= 3:
		return fmt.Sprintf("🩸 Слабость альткоинов: только %d из %d в плюсе", pos, len(top)), true
	default:
		return "", false
	}
}

// AverageVolatility is the mean absolute 24h change. ok is false for an empty list.
func AverageVolatility(assets []models.AssetQuote) (float64, bool) {
	if len(assets) == 0 {
		return 0, false
	}
	var sum float64
	for _, a := range assets {
		sum += math.Abs(a.Change24h)
	}
	return sum / float64(len(assets)), true
}

func volatilityRecommendation(top []models.AssetQuote) (string, bool) {
	avg, ok := AverageVolatility(top)
	if !ok {
		return "", false
	}
	switch {
	case avg > 15:
		return fmt.Sprintf("⚠️ Высокая волатильность (%.1f%%): уменьшите размер позиций и ставьте стоп-лоссы", avg), true
	case avg > 8:
		return fmt.Sprintf("⚡ Умеренная волатильность (%.1f%%): торгуйте осторожно", avg), true
	default:
		return fmt.Sprintf("🧘 Низкая волатильность (%.1f%%): рынок подходит для накопления", avg), true
	}
}

func fearGreedRecommendation(value int) (string, bool) {
	switch {
	case value <= 25:
		return "💰 Экстремальный страх: исторически хорошее время для покупок", true
	case value <= 45:
		return "🛒 Страх на рынке: можно понемногу набирать позиции", true
	case value >= 75:
		return "🚨 Экстремальная жадность: рассмотрите фиксацию прибыли", true
	case value >= 55:
		return "✋ Жадность растёт: держите позиции, не входите на хаях", true
	default:
		return "", false
	}
}

var _ domsvc.InsightEngine = (*Engine)(nil)
