package report

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"MarketPulse/internal/domain/models"
	domsvc "MarketPulse/internal/domain/service"
	"MarketPulse/internal/services/analytics"
)

const (
	DefaultBrand = "MarvelMarket"
	divider      = "━━━━━━━━━━━━━━━━━━"
	errorPrefix  = "❌ Ошибка при получении данных: "
	timeLayout   = "02.01.2006 15:04"

	maxCauseRunes = 120
)

var titles = map[models.ReportKind]string{
	models.ReportDigest:         "🔥 <b>АНАЛИТИКА КРИПТОРЫНКА</b> 🔥",
	models.ReportCryptoOverview: "🔥 <b>КРИПТО РЫНОК</b> 🔥",
	models.ReportEquities:       "🏆 <b>ЗОЛОТО И ТОП АКЦИИ</b> 🏆",
}

var headers = map[models.SectionName]string{
	models.SectionSentiment:       "🧭 <b>НАСТРОЕНИЕ РЫНКА</b>",
	models.SectionMovements:       "⚡ <b>ДВИЖЕНИЯ С ПРОШЛОГО ОТЧЁТА</b>",
	models.SectionInsights:        "💡 <b>ИНСАЙТЫ</b>",
	models.SectionRecommendations: "🎯 <b>РЕКОМЕНДАЦИИ</b>",
	models.SectionCurrentMetrics:  "📊 <b>ТЕКУЩИЕ ПОКАЗАТЕЛИ</b>",
	models.SectionTopAssets:       divider + "\n\n<b>ТОП-10 КРИПТОВАЛЮТ:</b>",
	models.SectionCommodities:     divider + "\n🥇 <b>ЗОЛОТО (PAXG)</b>",
	models.SectionEquities:        divider + "\n\n<b>ТОП АКЦИИ США:</b>",
}

// Sections whose entries are multi-line blocks separated by an empty line.
var blockSections = map[models.SectionName]bool{
	models.SectionTopAssets: true,
	models.SectionEquities:  true,
}

// Renderer produces Telegram HTML: bold spans and line breaks only.
type Renderer struct {
	brand string
}

func NewRenderer(brand string) *Renderer {
	if strings.TrimSpace(brand) == "" {
		brand = DefaultBrand
	}
	return &Renderer{brand: html.EscapeString(brand)}
}

// Render concatenates sections under fixed headers, then the timestamp and footer.
func (r *Renderer) Render(rep models.DigestReport) string {
	var b strings.Builder
	b.WriteString(titles[rep.Kind])
	b.WriteString("\n\n")

	for _, s := range rep.Sections {
		if len(s.Lines) == 0 {
			continue
		}
		if h, ok := headers[s.Name]; ok {
			b.WriteString(h)
			b.WriteString("\n")
			if blockSections[s.Name] {
				b.WriteString("\n")
			}
		}
		sep := "\n"
		if blockSections[s.Name] {
			sep = "\n\n"
		}
		b.WriteString(strings.Join(s.Lines, sep))
		b.WriteString("\n\n")
	}

	b.WriteString("⏰ Обновлено: ")
	b.WriteString(rep.GeneratedAt.UTC().Format(timeLayout))
	b.WriteString(" UTC\n\n")
	b.WriteString(r.footer(rep.Kind))
	return b.String()
}

// RenderError is the single line delivered in place of a report.
// Only a short cause is published; callers log the full error.
func (r *Renderer) RenderError(err error) string {
	return errorPrefix + html.EscapeString(ErrorCause(err))
}

// ErrorCause names the failing source and status without request details.
func ErrorCause(err error) string {
	var ue *models.UpstreamError
	switch {
	case err == nil:
		return "unknown error"
	case errors.As(err, &ue):
		return ue.Brief()
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	msg := err.Error()
	if utf8.RuneCountInString(msg) > maxCauseRunes {
		msg = string([]rune(msg)[:maxCauseRunes]) + "…"
	}
	return msg
}

func (r *Renderer) footer(kind models.ReportKind) string {
	if kind == models.ReportEquities {
		return fmt.Sprintf("💼 <b>%s</b> - Следим за рынками вместе!", r.brand)
	}
	return fmt.Sprintf("💎 <b>%s</b> - Твой гид в мире крипты!", r.brand)
}

// IsErrorText reports whether text was produced by RenderError.
func IsErrorText(text string) bool {
	return strings.HasPrefix(text, errorPrefix)
}

// CurrentMetricsLines lists the headline market numbers.
func CurrentMetricsLines(g *models.GlobalMetrics, idx models.SentimentIndex) []string {
	if g == nil {
		return nil
	}
	return []string{
		"💰 Капитализация: " + analytics.FormatMagnitude(g.TotalMarketCap),
		"📈 Изменение 24ч: " + analytics.FormatSignedPercent(g.MarketCapChange),
		"💹 Объём 24ч: " + analytics.FormatMagnitude(g.TotalVolume24h),
		fmt.Sprintf("%s Страх/жадность: %d (%s)", analytics.SentimentGlyph(idx.Value), idx.Value, html.EscapeString(idx.Classification)),
	}
}

// StripMarkup turns rendered HTML into plain text.
func StripMarkup(text string) string {
	text = strings.NewReplacer("<b>", "", "</b>", "").Replace(text)
	return html.UnescapeString(text)
}

var _ domsvc.ReportRenderer = (*Renderer)(nil)

