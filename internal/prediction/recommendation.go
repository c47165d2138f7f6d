package prediction

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/mariusnicorescu85/uk-property-investment/config"
	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
)

// regionRemarks are appended to the reasoning for grouped regions. They
// inform, they never move the score.
var regionRemarks = map[string]string{
	"London":              "London market resilience supports long-term demand",
	"Northern Powerhouse": "Northern Powerhouse investment supports growth prospects",
	"Scottish Cities":     "Scottish city market offers steady tenant demand",
	"Welsh Cities":        "Welsh city market benefits from regeneration spending",
}

// recommend scores the investment case and assembles the reasoning trail.
// Every adjustment that fires appends its reason in a fixed order, so the
// trail reads as an explanation of the final score.
func recommend(profile models.AreaProfile, data *models.EnhancedPropertyData, growths, yields []float64, risk int, quality float64) models.Recommendation {
	score := 5.0
	reasoning := make([]string, 0, 8)

	meanGrowth := stat.Mean(growths, nil)
	switch {
	case meanGrowth > 5:
		score += 2
		reasoning = append(reasoning, fmt.Sprintf("Strong projected price growth of %.1f%% per year", meanGrowth))
	case meanGrowth > 3:
		score++
		reasoning = append(reasoning, fmt.Sprintf("Solid projected price growth of %.1f%% per year", meanGrowth))
	case meanGrowth < 1:
		score -= 2
		reasoning = append(reasoning, fmt.Sprintf("Weak projected price growth of %.1f%% per year", meanGrowth))
	}

	meanYield := stat.Mean(yields, nil)
	switch {
	case meanYield > 6:
		score += 2
		reasoning = append(reasoning, fmt.Sprintf("Excellent rental yield of %.1f%%", meanYield))
	case meanYield > 4.5:
		score++
		reasoning = append(reasoning, fmt.Sprintf("Good rental yield of %.1f%%", meanYield))
	case meanYield < 3:
		score--
		reasoning = append(reasoning, fmt.Sprintf("Low rental yield of %.1f%%", meanYield))
	}

	switch {
	case risk < 4:
		score++
		reasoning = append(reasoning, fmt.Sprintf("Low investment risk score of %d/10", risk))
	case risk > 7:
		score -= 2
		reasoning = append(reasoning, fmt.Sprintf("High investment risk score of %d/10", risk))
	}

	if economic := data.Economic; economic != nil {
		switch {
		case economic.BaseRate < 4:
			score += 0.5
			reasoning = append(reasoning, fmt.Sprintf("Favourable borrowing conditions with base rate at %.2f%%", economic.BaseRate))
		case economic.BaseRate > 6:
			score -= 0.5
			reasoning = append(reasoning, fmt.Sprintf("Expensive borrowing with base rate at %.2f%%", economic.BaseRate))
		}
		if economic.Inflation > 5 {
			score -= 0.5
			reasoning = append(reasoning, fmt.Sprintf("High inflation at %.1f%% may erode real returns", economic.Inflation))
		}
	}

	if _, group := config.RegionBonus(profile.AreaCode); group != "" {
		if remark, ok := regionRemarks[group]; ok {
			reasoning = append(reasoning, remark)
		}
	}

	switch sales := len(data.Sales); {
	case sales > 10:
		score += 0.3
		reasoning = append(reasoning, fmt.Sprintf("Active local market with %d recent sales", sales))
	case sales < 3:
		score -= 0.2
		reasoning = append(reasoning, "Thin local market with few recent sales")
	}

	if impact := data.Metrics.CrimeImpact; impact != nil {
		switch {
		case impact.SafetyScore > 7:
			score += 0.5
			reasoning = append(reasoning, "Safe area with low reported crime")
		case impact.SafetyScore < 3:
			score -= 0.5
			reasoning = append(reasoning, "Elevated crime levels in the area")
		}
	}

	reasoning = append(reasoning, qualityRemark(quality))

	return models.Recommendation{
		Label:       label(score),
		Score:       round2(score),
		Reasoning:   reasoning,
		Confidence:  int(math.Round(float64(10-risk)*8 + quality*20)),
		DataQuality: int(math.Round(quality * 100)),
	}
}

func qualityRemark(quality float64) string {
	switch {
	case quality >= 0.85:
		return "Assessment backed by comprehensive live data"
	case quality >= 0.75:
		return "Assessment based on a mix of live and estimated data"
	default:
		return "Assessment based largely on area-level estimates"
	}
}

func label(score float64) string {
	switch {
	case score >= 7.5:
		return models.LabelStrongBuy
	case score >= 6:
		return models.LabelBuy
	case score <= 2:
		return models.LabelStrongSell
	case score <= 3:
		return models.LabelSell
	default:
		return models.LabelHold
	}
}
