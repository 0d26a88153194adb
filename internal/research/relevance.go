package research

import (
	"strings"
)

// relevance scores text by the density of query terms, on a 0-100 scale.
// Title matches count double.
func relevance(query, title, summary string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}

	title = strings.ToLower(title)
	text := title + " " + strings.ToLower(summary)
	wordCount := len(strings.Fields(text))
	if wordCount == 0 {
		return 0
	}

	matches := 0
	for _, term := range terms {
		matches += strings.Count(text, term) + strings.Count(title, term)
	}

	score := float64(matches) / float64(wordCount) * 100
	if score > 100 {
		score = 100
	}
	return score
}
