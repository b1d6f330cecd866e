package render

import (
	"fmt"
	"math"
	"strings"

	"ecorisk/internal/prediction"
)

// ResultView is a prediction response prepared for display.
type ResultView struct {
	Score     float64
	ScoreText string
	Tier      RiskTier
	// GaugeWidth is the CSS width of the gauge fill, clamped to [0%, 100%].
	GaugeWidth string
	// GaugeRatio is the clamped fill in [0, 1], for terminal gauges.
	GaugeRatio float64

	FloodCategory string
	FloodClass    string

	Bars []BarView
}

// BarView is one probability bar.
type BarView struct {
	Category  string
	Class     string
	Ratio     float64
	Width     string
	ValueText string
}

// NewResultView prepares resp for display. Bars follow the order of
// resp.RiskProbabilities.
func NewResultView(resp prediction.Response) ResultView {
	score := resp.ClimateRiskScore
	ratio := clamp01(score)

	view := ResultView{
		Score:         score,
		ScoreText:     fmt.Sprintf("%.3f", score),
		Tier:          TierFor(score),
		GaugeWidth:    percent(ratio),
		GaugeRatio:    ratio,
		FloodCategory: resp.FloodRiskCategory,
		FloodClass:    strings.ToLower(resp.FloodRiskCategory),
		Bars:          make([]BarView, 0, len(resp.RiskProbabilities)),
	}

	for _, p := range resp.RiskProbabilities {
		r := clamp01(p.Value)
		view.Bars = append(view.Bars, BarView{
			Category:  p.Category,
			Class:     strings.ToLower(p.Category),
			Ratio:     r,
			Width:     percent(r),
			ValueText: fmt.Sprintf("%.1f%%", p.Value*100),
		})
	}

	return view
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}
