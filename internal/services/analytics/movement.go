package analytics

import (
	"fmt"
	"math"

	"MarketPulse/internal/domain/models"
	domsvc "MarketPulse/internal/domain/service"
)

const (
	BaselineStatement = "🆕 Первый анализ: формируем базу для сравнения"
	StableStatement   = "😴 Рынок стабилен: значимых движений нет"

	DefaultMovementThreshold = 8.0
)

// DefaultWatchList is the fixed set of symbols subject to movement detection.
var DefaultWatchList = []string{"BTC", "ETH", "SOL", "BNB", "XRP", "ADA", "DOGE", "AVAX", "DOT", "LINK"}

// Detector implements domsvc.MovementDetector over a fixed watch-list.
type Detector struct {
	watchList []string
	threshold float64
}

func NewDetector(watchList []string, threshold float64) *Detector {
	if len(watchList) == 0 {
		watchList = DefaultWatchList
	}
	if threshold <= 0 {
		threshold = DefaultMovementThreshold
	}
	wl := make([]string, len(watchList))
	copy(wl, watchList)
	return &Detector{watchList: wl, threshold: threshold}
}

// Detect reports watch-list symbols whose price moved more than the threshold since previous.
// Statements follow watch-list order.
func (d *Detector) Detect(current []models.AssetQuote, previous *models.MarketSnapshot) []string {
	if previous == nil {
		return []string{BaselineStatement}
	}

	cur := models.PriceIndex(current)
	prev := models.PriceIndex(previous.Assets)

	var out []string
	for _, sym := range d.watchList {
		c, okCur := cur[sym]
		p, okPrev := prev[sym]
		if !okCur || !okPrev || p == 0 {
			continue
		}
		change := (c - p) / p * 100
		if math.Abs(change) <= d.threshold {
			continue
		}
		out = append(out, fmt.Sprintf("%s <b>%s</b>: %+.1f%% с прошлого отчёта", DirectionGlyph(change), sym, change))
	}
	if len(out) == 0 {
		return []string{StableStatement}
	}
	return out
}

// WatchList returns a copy of the tracked symbols.
func (d *Detector) WatchList() []string {
	out := make([]string, len(d.watchList))
	copy(out, d.watchList)
	return out
}

var _ domsvc.MovementDetector = (*Detector)(nil)
