package analytics

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMagnitude(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{999.5, "$999.50"},
		{1234.567, "$1,234.57"},
		{999_999.99, "$999,999.99"},
		{1_000_000, "$1.00M"},
		{2_345_000_000, "$2.35B"},
		{999_999_999_999, "$1000.00B"},
		{2.5e12, "$2.50T"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatMagnitude(tc.in), "value %v", tc.in)
	}
}

func TestFormatMagnitudeRoundTrip(t *testing.T) {
	scale := map[string]float64{"T": trillion, "B": billion, "M": million, "": 1}
	for _, v := range []float64{0, 12.34, 56789.01, 3.21e6, 4.56e9, 7.89e12} {
		s := strings.TrimPrefix(FormatMagnitude(v), "$")
		unit := ""
		if last := s[len(s)-1:]; last == "T" || last == "B" || last == "M" {
			unit = last
			s = s[:len(s)-1]
		}
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		require.NoError(t, err)
		assert.InDelta(t, v, parsed*scale[unit], 0.005*scale[unit], "value %v", v)
	}
}

func TestDirectionGlyphBoundaries(t *testing.T) {
	assert.Equal(t, "🚀", DirectionGlyph(5.01))
	assert.Equal(t, "📈", DirectionGlyph(5))
	assert.Equal(t, "📈", DirectionGlyph(0.01))
	assert.Equal(t, "📉", DirectionGlyph(0))
	assert.Equal(t, "📉", DirectionGlyph(-4.99))
	assert.Equal(t, "💀", DirectionGlyph(-5))
	assert.Equal(t, "💀", DirectionGlyph(-80))
}

func TestSentimentGlyphBuckets(t *testing.T) {
	assert.Equal(t, "😱", SentimentGlyph(0))
	assert.Equal(t, "😱", SentimentGlyph(24))
	assert.Equal(t, "😰", SentimentGlyph(25))
	assert.Equal(t, "😐", SentimentGlyph(45))
	assert.Equal(t, "😊", SentimentGlyph(55))
	assert.Equal(t, "🤑", SentimentGlyph(75))
	assert.Equal(t, "🤑", SentimentGlyph(100))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$0.123457", FormatPrice(0.1234567))
	assert.Equal(t, "$67,123.40", FormatPrice(67123.4))
	assert.Equal(t, "+1.23%", FormatSignedPercent(1.234))
	assert.Equal(t, "-0.50%", FormatSignedPercent(-0.5))
	assert.Equal(t, "🟢", ChangeGlyph(0.1))
	assert.Equal(t, "🔴", ChangeGlyph(0))
}
