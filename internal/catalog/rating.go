package catalog

import (
	"fmt"
	"strings"
)

const (
	RatingLow      = "low"
	RatingModerate = "moderate"
	RatingHigh     = "high"
)

// RatingResult is the derived recommendation for one food. It is computed on
// demand and never stored; Rate is pure, so recomputing it from the same
// record always yields an identical result.
type RatingResult struct {
	Food             FoodRecord        `json:"-"`
	Verdict          string            `json:"verdict"`
	SafeForLowFodmap bool              `json:"safeForLowFodmap"`
	Recommendation   string            `json:"recommendation"`
	Components       map[string]string `json:"components,omitempty"`
}

// Rate maps a catalog record to its rating result. The verdict comes solely
// from the pre-assigned Rating field; the per-compound breakdown is
// explanatory detail on top of it, never an independent classifier.
func Rate(f FoodRecord) RatingResult {
	verdict := f.Rating
	switch verdict {
	case RatingLow, RatingModerate, RatingHigh:
	default:
		verdict = RatingLow
	}

	r := RatingResult{
		Food:             f,
		Verdict:          verdict,
		SafeForLowFodmap: verdict == RatingLow,
		Recommendation:   recommendation(f, verdict),
	}

	if f.Details != nil {
		r.Components = map[string]string{
			"oligos":   severityWord(f.Details.Oligos),
			"fructose": severityWord(f.Details.Fructose),
			"polyols":  severityWord(f.Details.Polyols),
			"lactose":  severityWord(f.Details.Lactose),
		}
	}

	return r
}

func recommendation(f FoodRecord, verdict string) string {
	switch verdict {
	case RatingLow:
		msg := "Safe to enjoy on a low-FODMAP diet."
		if f.SafeServing != "" {
			msg += fmt.Sprintf(" Stick to %s.", f.SafeServing)
		}
		if f.Tips != "" {
			msg += " " + f.Tips
		}
		return msg

	case RatingModerate:
		msg := "Moderate in FODMAPs, portion size matters."
		if f.SafeServing != "" {
			msg = fmt.Sprintf("Moderate in FODMAPs, keep servings to %s.", f.SafeServing)
		}
		if f.Tips != "" {
			msg += " " + f.Tips
		}
		return msg

	default:
		msg := "High in FODMAPs, best avoided on a low-FODMAP diet."
		if culprits := highComponents(f.Details); len(culprits) > 0 {
			msg += fmt.Sprintf(" Elevated in: %s.", strings.Join(culprits, ", "))
		}
		if len(f.Alternatives) > 0 {
			msg += fmt.Sprintf(" Try instead: %s.", strings.Join(f.Alternatives, ", "))
		}
		return msg
	}
}

// highComponents lists compound classes scoring medium or high, explaining
// why a food earned its warning.
func highComponents(d *FodmapDetails) []string {
	if d == nil {
		return nil
	}
	var out []string
	for _, c := range []struct {
		name string
		code int
	}{
		{"oligosaccharides", d.Oligos},
		{"fructose", d.Fructose},
		{"polyols", d.Polyols},
		{"lactose", d.Lactose},
	} {
		if c.code == 1 || c.code == 2 {
			out = append(out, c.name)
		}
	}
	return out
}

// severityWord maps a raw compound code to its display word. Codes outside
// {0,1,2} show up in scraped data now and then; they fall back to "low"
// rather than failing the request.
func severityWord(code int) string {
	switch code {
	case 1:
		return "medium"
	case 2:
		return "high"
	default:
		return "low"
	}
}
