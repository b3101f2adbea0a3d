package analytics

import (
	"fmt"
	"html"

	"MarketPulse/internal/domain/models"
	domsvc "MarketPulse/internal/domain/service"
)

// Classifier implements domsvc.SentimentClassifier.
type Classifier struct{}

func NewClassifier() *Classifier { return &Classifier{} }

// Classify emits the market trend statement (only with global metrics) followed by
// the fear/greed statement, which is always present.
func (c *Classifier) Classify(global *models.GlobalMetrics, index models.SentimentIndex) []string {
	out := make([]string, 0, 2)
	if global != nil {
		out = append(out, trendStatement(global.MarketCapChange))
	}
	out = append(out, fearGreedStatement(index))
	return out
}

func trendStatement(change float64) string {
	switch {
	case change > 3:
		return fmt.Sprintf("🐂 Бычий настрой: капитализация растёт (%s)", FormatSignedPercent(change))
	case change > 0:
		return fmt.Sprintf("📈 Умеренный рост рынка (%s)", FormatSignedPercent(change))
	case change > -3:
		return fmt.Sprintf("📉 Коррекция рынка (%s)", FormatSignedPercent(change))
	default:
		return fmt.Sprintf("🐻 Медвежий настрой: сильное снижение (%s)", FormatSignedPercent(change))
	}
}

func fearGreedStatement(idx models.SentimentIndex) string {
	var mood string
	switch {
	case idx.Value < 25:
		mood = "Экстремальный страх"
	case idx.Value < 45:
		mood = "Страх"
	case idx.Value < 55:
		mood = "Нейтрально"
	case idx.Value < 75:
		mood = "Жадность"
	default:
		mood = "Экстремальная жадность"
	}
	return fmt.Sprintf("%s %s: индекс страха/жадности %d (%s)",
		SentimentGlyph(idx.Value), mood, idx.Value, html.EscapeString(idx.Classification))
}

var _ domsvc.SentimentClassifier = (*Classifier)(nil)
