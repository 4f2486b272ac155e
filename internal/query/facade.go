// Package query is the thin read path used by analysis consumers:
// friendly category names and column projection over the store's range
// scan. It adds no invariants of its own.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/agrodata/cotacoes-etl/internal/quotes"
	"github.com/agrodata/cotacoes-etl/internal/store"
)

// aliases maps friendly names onto categories, alongside the exact
// category names themselves.
var aliases = map[string]quotes.Category{
	"simple":           quotes.CategorySimpleIndicator,
	"simple_indicator": quotes.CategorySimpleIndicator,
	"state":            quotes.CategoryStateIndicator,
	"states":           quotes.CategoryStateIndicator,
	"state_indicator":  quotes.CategoryStateIndicator,
	"futures":          quotes.CategoryFuturesContract,
	"futures_contract": quotes.CategoryFuturesContract,
	"replacement":      quotes.CategoryReplacement,
	"external":         quotes.CategoryExternalMarket,
	"external_market":  quotes.CategoryExternalMarket,
}

// ResolveCategory maps a friendly or exact name to its category.
func ResolveCategory(name string) (quotes.Category, error) {
	if cat, ok := aliases[name]; ok {
		return cat, nil
	}
	return "", fmt.Errorf("unknown category %q", name)
}

// Options select what Load returns.
type Options struct {
	// Categories by friendly or exact name; empty means all.
	Categories []string
	Start, End time.Time
	// Columns prunes Rows output to the named columns; empty keeps all.
	Columns []string
}

// Facade wraps the store's read path.
type Facade struct {
	store *store.Store
}

// New builds a Facade over st.
func New(st *store.Store) *Facade {
	return &Facade{store: st}
}

// Load returns the typed records for the requested window.
func (f *Facade) Load(ctx context.Context, opts Options) ([]quotes.Records, error) {
	cats := make([]quotes.Category, 0, len(opts.Categories))
	for _, name := range opts.Categories {
		cat, err := ResolveCategory(name)
		if err != nil {
			return nil, err
		}
		cats = append(cats, cat)
	}
	return f.store.ReadRange(ctx, cats, opts.Start, opts.End)
}

// Rows returns the same window as flat column-keyed rows, pruned to
// opts.Columns when given. This is the shape analysis notebooks expect.
// Keys are the parquet column names; the partition tag rides along
// under "_category" so it never shadows a record's own column (the
// replacement schema has a "category" column of its own).
func (f *Facade) Rows(ctx context.Context, opts Options) ([]map[string]any, error) {
	records, err := f.Load(ctx, opts)
	if err != nil {
		return nil, err
	}

	var keep map[string]bool
	if len(opts.Columns) > 0 {
		keep = make(map[string]bool, len(opts.Columns))
		for _, c := range opts.Columns {
			keep[c] = true
		}
	}

	var out []map[string]any
	for _, recs := range records {
		for _, row := range flatten(recs) {
			out = append(out, project(row, keep))
		}
	}
	return out, nil
}

func flatten(recs quotes.Records) []map[string]any {
	rows := make([]map[string]any, 0, recs.Len())
	switch recs.Category {
	case quotes.CategorySimpleIndicator:
		for _, r := range recs.Simple {
			rows = append(rows, map[string]any{
				"_category":          string(recs.Category),
				"date":               r.Date,
				"indicator_name":     r.IndicatorName,
				"price_local":        numeric(r.PriceLocal),
				"variation_pct":      numeric(r.VariationPct),
				"price_alt_currency": numeric(r.PriceAltCurrency),
			})
		}
	case quotes.CategoryStateIndicator:
		for _, r := range recs.States {
			rows = append(rows, map[string]any{
				"_category":          string(recs.Category),
				"date":               r.Date,
				"indicator_name":     r.IndicatorName,
				"state":              r.State,
				"price_local":        numeric(r.PriceLocal),
				"variation_pct":      numeric(r.VariationPct),
				"price_alt_currency": numeric(r.PriceAltCurrency),
			})
		}
	case quotes.CategoryFuturesContract:
		for _, r := range recs.Futures {
			rows = append(rows, map[string]any{
				"_category":      string(recs.Category),
				"date":           r.Date,
				"contract_month": r.ContractMonth,
				"indicator_name": r.IndicatorName,
				"price":          numeric(r.Price),
				"variation":      numeric(r.Variation),
			})
		}
	case quotes.CategoryReplacement:
		for _, r := range recs.Replacement {
			rows = append(rows, map[string]any{
				"_category":          string(recs.Category),
				"date":               r.Date,
				"state":              r.State,
				"category":           r.Category,
				"desmama":            numeric(r.Desmama),
				"weaned_female_male": numeric(r.WeanedFemaleMale),
				"yearling":           numeric(r.Yearling),
				"cow_or_lean_steer":  numeric(r.CowOrLeanSteer),
			})
		}
	case quotes.CategoryExternalMarket:
		for _, r := range recs.External {
			rows = append(rows, map[string]any{
				"_category": string(recs.Category),
				"date":      r.Date,
				"market":    r.Market,
				"contract":  r.Contract,
				"price":     numeric(r.Price),
				"variation": numeric(r.Variation),
			})
		}
	}
	return rows
}

func project(row map[string]any, keep map[string]bool) map[string]any {
	if keep == nil {
		return row
	}
	out := make(map[string]any, len(keep))
	for k, v := range row {
		if keep[k] {
			out[k] = v
		}
	}
	return out
}

func numeric(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
