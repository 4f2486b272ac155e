package fetch

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/agrodata/cotacoes-etl/internal/quotes"
)

// headerLabels are the cell texts that identify a table's header row.
var headerLabels = map[string]bool{
	"data":     true,
	"preço":    true,
	"variação": true,
	"estado":   true,
	"região":   true,
}

// extractTables walks the page's h2 section titles and captures the
// table that follows each one.
func extractTables(r io.Reader) ([]quotes.RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var tables []quotes.RawTable
	doc.Find("h2").Each(func(_ int, h *goquery.Selection) {
		title := strings.TrimSpace(h.Text())
		if title == "" {
			return
		}
		table := nextTable(h)
		if table == nil {
			return
		}
		raw := extractTable(table, title)
		if len(raw.Rows) > 0 {
			tables = append(tables, raw)
		}
	})
	return tables, nil
}

// nextTable finds the table belonging to the heading: a later sibling,
// or a table nested inside one. The search stops at the next heading so
// a table is never attributed to two sections.
func nextTable(h *goquery.Selection) *goquery.Selection {
	for sib := h.Next(); sib.Length() > 0; sib = sib.Next() {
		switch goquery.NodeName(sib) {
		case "h2":
			return nil
		case "table":
			return sib
		}
		if t := sib.Find("table").First(); t.Length() > 0 {
			return t
		}
	}
	return nil
}

// extractTable reads a table's rows, promoting the first row that
// looks like a header (known column labels) to Header.
func extractTable(table *goquery.Selection, title string) quotes.RawTable {
	raw := quotes.RawTable{Title: title}

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		empty := true
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			text := strings.TrimSpace(cell.Text())
			if text != "" {
				empty = false
			}
			cells = append(cells, text)
		})
		if len(cells) == 0 || empty {
			return
		}

		if len(raw.Header) == 0 && len(raw.Rows) == 0 && isHeaderRow(cells) {
			raw.Header = cells
			return
		}
		raw.Rows = append(raw.Rows, cells)
	})
	return raw
}

func isHeaderRow(cells []string) bool {
	for _, c := range cells {
		if headerLabels[strings.ToLower(strings.TrimSpace(c))] {
			return true
		}
	}
	return false
}
