// Package render turns prediction results into something a person can read:
// the Board display surface, an HTML page and a terminal report.
package render

// RiskTier classifies a climate risk score.
type RiskTier string

const (
	TierLow    RiskTier = "low"
	TierMedium RiskTier = "medium"
	TierHigh   RiskTier = "high"
)

// Tier boundaries. A score below LowCeiling is low, below MediumCeiling is
// medium, anything else is high.
const (
	LowCeiling    = 0.33
	MediumCeiling = 0.67
)

// TierFor returns the tier of score.
func TierFor(score float64) RiskTier {
	switch {
	case score < LowCeiling:
		return TierLow
	case score < MediumCeiling:
		return TierMedium
	default:
		return TierHigh
	}
}

// Label is the text shown under the gauge.
func (t RiskTier) Label() string {
	switch t {
	case TierLow:
		return "Low Risk"
	case TierMedium:
		return "Medium Risk"
	default:
		return "High Risk"
	}
}

// Class is the CSS class applied to the risk level badge.
func (t RiskTier) Class() string {
	return string(t)
}

// Gradient is the CSS background of the gauge fill.
func (t RiskTier) Gradient() string {
	switch t {
	case TierLow:
		return "linear-gradient(90deg, #27ae60, #2ecc71)"
	case TierMedium:
		return "linear-gradient(90deg, #f39c12, #e67e22)"
	default:
		return "linear-gradient(90deg, #e74c3c, #c0392b)"
	}
}
