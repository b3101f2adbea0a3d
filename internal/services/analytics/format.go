package analytics

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	trillion = 1_000_000_000_000
	billion  = 1_000_000_000
	million  = 1_000_000
)

var printer = message.NewPrinter(language.English)

// FormatMagnitude renders a USD amount scaled to T/B/M with two decimals,
// or with thousands separators below one million.
func FormatMagnitude(v float64) string {
	switch {
	case v >= trillion:
		return fmt.Sprintf("$%.2fT", v/trillion)
	case v >= billion:
		return fmt.Sprintf("$%.2fB", v/billion)
	case v >= million:
		return fmt.Sprintf("$%.2fM", v/million)
	default:
		return printer.Sprintf("$%.2f", v)
	}
}

// FormatPrice keeps six decimals for sub-dollar assets.
func FormatPrice(v float64) string {
	if v < 1 {
		return fmt.Sprintf("$%.6f", v)
	}
	return printer.Sprintf("$%.2f", v)
}

// FormatSignedPercent renders 1.234 as "+1.23%".
func FormatSignedPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// DirectionGlyph maps a percent change to one of four tiers: >5, >0, >-5, rest.
func DirectionGlyph(change float64) string {
	switch {
	case change > 5:
		return "🚀"
	case change > 0:
		return "📈"
	case change > -5:
		return "📉"
	default:
		return "💀"
	}
}

// ChangeGlyph is the green/red dot shown next to a signed change.
func ChangeGlyph(change float64) string {
	if change > 0 {
		return "🟢"
	}
	return "🔴"
}

// SentimentGlyph buckets a fear/greed value at 25, 45, 55 and 75.
func SentimentGlyph(value int) string {
	switch {
	case value < 25:
		return "😱"
	case value < 45:
		return "😰"
	case value < 55:
		return "😐"
	case value < 75:
		return "😊"
	default:
		return "🤑"
	}
}
