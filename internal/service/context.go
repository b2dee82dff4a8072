package service

import (
	"fmt"
	"strings"

	"fodmate-backend/internal/catalog"
)

const groundingHeader = "You have verified FODMAP ratings for foods mentioned by the user. Use them as the authoritative source:"

// ContextAssembler turns a user utterance into a grounding block for the
// model prompt plus the structured match list for the side channel.
type ContextAssembler struct {
	catalog *catalog.Store
}

func NewContextAssembler(store *catalog.Store) *ContextAssembler {
	return &ContextAssembler{catalog: store}
}

// BuildContext searches the catalog with the raw utterance and rates every
// match. An empty result means no grounding is injected and the model answers
// unaided.
func (a *ContextAssembler) BuildContext(utterance string) (string, []catalog.RatingResult) {
	foods := a.catalog.Search(utterance)
	if len(foods) == 0 {
		return "", nil
	}

	results := make([]catalog.RatingResult, 0, len(foods))
	var b strings.Builder
	b.WriteString(groundingHeader)
	b.WriteString("\n")

	for _, food := range foods {
		r := catalog.Rate(food)
		results = append(results, r)

		b.WriteString(fmt.Sprintf("\n%s: %s FODMAP\n", food.Name, strings.ToUpper(r.Verdict)))
		if food.Category != "" {
			b.WriteString(fmt.Sprintf("Category: %s\n", food.Category))
		}
		if food.SafeServing != "" {
			b.WriteString(fmt.Sprintf("Safe serving: %s\n", food.SafeServing))
		}
		b.WriteString(r.Recommendation)
		b.WriteString("\n")
	}

	return b.String(), results
}
