// Package normalize classifies a day's scraped tables and coerces them
// into the fixed per-category record schemas.
package normalize

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agrodata/cotacoes-etl/internal/quotes"
)

// Result is one day's normalized output: zero or more categories, each
// holding a homogeneous row set, plus the count of rows dropped as
// parse anomalies.
type Result struct {
	Date       string
	ByCategory map[quotes.Category]quotes.Records
	Anomalies  int
}

// Normalizer turns raw day payloads into typed records.
type Normalizer struct {
	log *zap.Logger
}

// New constructs a Normalizer.
func New(log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{log: log}
}

// bannerMarkers identify footnote and update-banner rows that the
// source interleaves with data rows.
var bannerMarkers = []string{
	"Ver histórico",
	"Atualizado em:",
	"Última atualização",
	"ponderada considerando",
	"Desmama:",
	"Peso",
}

// Normalize maps every table in raw to a category and produces the
// day's records. Absence of a category is not an error; a payload that
// yields no category at all is a PayloadError, which the orchestrator
// records as a failed date.
func (n *Normalizer) Normalize(raw quotes.RawDay) (Result, error) {
	date := quotes.DateKey(raw.Date)
	res := Result{
		Date:       date,
		ByCategory: make(map[quotes.Category]quotes.Records),
	}

	for _, table := range raw.Tables {
		rows := validRows(table)
		if len(rows) == 0 {
			continue
		}
		table.Rows = rows

		cat := Classify(table)
		recs := res.ByCategory[cat]
		recs.Category = cat

		var anomalies int
		switch cat {
		case quotes.CategorySimpleIndicator:
			recs.Simple, anomalies = appendSimple(recs.Simple, table, date)
		case quotes.CategoryStateIndicator:
			recs.States, anomalies = appendStates(recs.States, table, date)
		case quotes.CategoryFuturesContract:
			recs.Futures, anomalies = appendFutures(recs.Futures, table, date)
		case quotes.CategoryReplacement:
			recs.Replacement, anomalies = appendReplacement(recs.Replacement, table, date)
		case quotes.CategoryExternalMarket:
			recs.External, anomalies = appendExternal(recs.External, table, date)
		}
		res.Anomalies += anomalies
		if anomalies > 0 {
			n.log.Debug("dropped unparsable rows",
				zap.String("date", date),
				zap.String("table", table.Title),
				zap.String("category", string(cat)),
				zap.Int("dropped", anomalies),
			)
		}

		if recs.Len() > 0 {
			res.ByCategory[cat] = recs
		}
	}

	if len(res.ByCategory) == 0 {
		return Result{}, &quotes.PayloadError{
			Date:   date,
			Reason: fmt.Sprintf("no table out of %d classified", len(raw.Tables)),
		}
	}
	return res, nil
}

// validRows filters out banner and footnote rows before classification.
func validRows(t quotes.RawTable) [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		joined := strings.Join(row, " ")
		banner := false
		for _, marker := range bannerMarkers {
			if strings.Contains(joined, marker) {
				banner = true
				break
			}
		}
		if !banner && len(row) > 0 {
			out = append(out, row)
		}
	}
	return out
}

// cellMap keys a row's cells by header label, falling back to
// positional column_N keys for headerless tables.
func cellMap(t quotes.RawTable, row []string) map[string]string {
	m := make(map[string]string, len(row))
	for j, v := range row {
		m[columnKey(t, j)] = v
	}
	return m
}

// columnKey is the header label for column j, or a positional
// column_N key when the table has no usable header.
func columnKey(t quotes.RawTable, j int) string {
	if j < len(t.Header) && t.Header[j] != "" {
		return t.Header[j]
	}
	return fmt.Sprintf("column_%d", j)
}

func keyContains(key string, needles ...string) bool {
	k := strings.ToLower(key)
	for _, needle := range needles {
		if strings.Contains(k, needle) {
			return true
		}
	}
	return false
}

func appendSimple(dst []quotes.SimpleIndicator, t quotes.RawTable, date string) ([]quotes.SimpleIndicator, int) {
	var dropped int
	for _, row := range t.Rows {
		// Columns are walked left to right; when two columns match the
		// same field (the "À vista"/"A prazo" price pair) the rightmost
		// one wins, always.
		var price, variation, alt *float64
		for j, value := range row {
			switch key := columnKey(t, j); {
			case keyContains(key, "r$", "vista", "prazo", "valor", "preço", "preco"):
				price = CleanNumeric(value)
			case keyContains(key, "variação", "variacao", "(%)"):
				variation = CleanNumeric(value)
			case keyContains(key, "u$", "us$"):
				alt = CleanNumeric(value)
			}
		}

		if price == nil && variation == nil && alt == nil {
			dropped++
			continue
		}
		dst = append(dst, quotes.SimpleIndicator{
			Date:             date,
			IndicatorName:    t.Title,
			PriceLocal:       price,
			VariationPct:     variation,
			PriceAltCurrency: alt,
		})
	}
	return dst, dropped
}

func appendStates(dst []quotes.StateIndicator, t quotes.RawTable, date string) ([]quotes.StateIndicator, int) {
	var dropped int
	for _, row := range t.Rows {
		cells := cellMap(t, row)

		state := cells["Estado"]
		if state == "" {
			state = cells["column_0"]
		}
		lower := strings.ToLower(state)
		if state == "" || lower == "município" || lower == "municipio" || lower == "munípicio" {
			dropped++
			continue
		}

		var price, variation, alt *float64
		for j, value := range row {
			switch key := columnKey(t, j); {
			case keyContains(key, "r$", "preço", "preco", "média", "media", "column_1"):
				price = CleanNumeric(value)
			case keyContains(key, "variação", "variacao", "column_2"):
				variation = CleanNumeric(value)
			case keyContains(key, "u$", "us$"):
				alt = CleanNumeric(value)
			}
		}

		if price == nil && variation == nil && alt == nil {
			dropped++
			continue
		}
		dst = append(dst, quotes.StateIndicator{
			Date:             date,
			IndicatorName:    t.Title,
			State:            state,
			PriceLocal:       price,
			VariationPct:     variation,
			PriceAltCurrency: alt,
		})
	}
	return dst, dropped
}

func appendFutures(dst []quotes.FuturesContract, t quotes.RawTable, date string) ([]quotes.FuturesContract, int) {
	var dropped int
	for _, row := range t.Rows {
		var contract string
		var price, variation *float64
		for j, value := range row {
			switch key := columnKey(t, j); {
			case keyContains(key, "contrato", "column_0"):
				// Contract months come as Mês/Ano.
				if strings.Contains(value, "/") {
					contract = value
				}
			case keyContains(key, "fechamento", "r$", "column_1"):
				price = CleanNumeric(value)
			case keyContains(key, "variação", "variacao", "column_2"):
				variation = CleanNumeric(value)
			}
		}

		if contract == "" || (price == nil && variation == nil) {
			dropped++
			continue
		}
		dst = append(dst, quotes.FuturesContract{
			Date:          date,
			ContractMonth: contract,
			IndicatorName: t.Title,
			Price:         price,
			Variation:     variation,
		})
	}
	return dst, dropped
}

func appendReplacement(dst []quotes.Replacement, t quotes.RawTable, date string) ([]quotes.Replacement, int) {
	category := "Macho"
	if strings.Contains(t.Title, "Fêmea") {
		category = "Fêmea"
	}

	var dropped int
	for _, row := range t.Rows {
		cells := cellMap(t, row)

		state := cells["Estado"]
		if state == "" {
			dropped++
			continue
		}

		desmama := CleanNumeric(cells["Desmama"])
		weaned := firstNumeric(cells, "Bezerra", "Bezerro")
		yearling := firstNumeric(cells, "Novilha", "Garrote")
		cow := firstNumeric(cells, "Vaca Magra", "Boi Magro")

		if desmama == nil && weaned == nil && yearling == nil && cow == nil {
			dropped++
			continue
		}
		dst = append(dst, quotes.Replacement{
			Date:             date,
			State:            state,
			Category:         category,
			Desmama:          desmama,
			WeanedFemaleMale: weaned,
			Yearling:         yearling,
			CowOrLeanSteer:   cow,
		})
	}
	return dst, dropped
}

func appendExternal(dst []quotes.ExternalMarket, t quotes.RawTable, date string) ([]quotes.ExternalMarket, int) {
	var dropped int
	for _, row := range t.Rows {
		var contract string
		var price, variation *float64
		for j, value := range row {
			switch key := columnKey(t, j); {
			case keyContains(key, "contrato", "column_0"):
				lower := strings.ToLower(value)
				if !strings.Contains(lower, "última") && !strings.Contains(lower, "atualização") {
					contract = value
				}
			case keyContains(key, "preço", "preco", "us$", "column_1"):
				price = CleanNumeric(value)
			case keyContains(key, "var", "column_2"):
				variation = CleanNumeric(value)
			}
		}

		if contract == "" || (price == nil && variation == nil) {
			dropped++
			continue
		}
		dst = append(dst, quotes.ExternalMarket{
			Date:      date,
			Market:    t.Title,
			Contract:  contract,
			Price:     price,
			Variation: variation,
		})
	}
	return dst, dropped
}

func firstNumeric(cells map[string]string, keys ...string) *float64 {
	for _, key := range keys {
		if v, ok := cells[key]; ok {
			if parsed := CleanNumeric(v); parsed != nil {
				return parsed
			}
		}
	}
	return nil
}
