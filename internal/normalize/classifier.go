package normalize

import (
	"strings"

	"github.com/agrodata/cotacoes-etl/internal/quotes"
)

// Classify maps a raw table to its record category using the section
// title and column signatures. The fallback is simple_indicator, which
// covers the headline indicators published without breakdown.
func Classify(t quotes.RawTable) quotes.Category {
	title := strings.ToLower(t.Title)

	switch {
	case strings.Contains(title, "reposição") || strings.Contains(title, "reposicao"):
		return quotes.CategoryReplacement
	case strings.Contains(title, "chicago") || strings.Contains(title, "new york"):
		return quotes.CategoryExternalMarket
	case strings.Contains(title, "pregão regular"),
		strings.Contains(title, "pregão") && strings.Contains(title, "b3"):
		return quotes.CategoryFuturesContract
	case hasStateColumn(t):
		return quotes.CategoryStateIndicator
	default:
		return quotes.CategorySimpleIndicator
	}
}

// hasStateColumn detects the per-state layout: an explicit "Estado"
// header, or municipality labels in the first column (the IMEA tables
// publish those without a header row).
func hasStateColumn(t quotes.RawTable) bool {
	for _, h := range t.Header {
		if strings.Contains(strings.ToLower(h), "estado") {
			return true
		}
	}
	for _, row := range t.Rows {
		if len(row) == 0 {
			continue
		}
		first := strings.ToLower(row[0])
		if strings.Contains(first, "município") || strings.Contains(first, "municipio") ||
			strings.Contains(first, "munípicio") {
			return true
		}
	}
	return false
}
