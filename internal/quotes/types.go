// Package quotes defines the record model shared across subsystems.
package quotes

import (
	"time"
)

// DateLayout is the calendar-day format used in filenames and record rows.
const DateLayout = "2006-01-02"

// DateKey renders a time as the canonical calendar-day string.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Category identifies one of the five fixed record schemas.
type Category string

// The closed set of record categories.
const (
	CategorySimpleIndicator Category = "simple_indicator"
	CategoryStateIndicator  Category = "state_indicator"
	CategoryFuturesContract Category = "futures_contract"
	CategoryReplacement     Category = "replacement"
	CategoryExternalMarket  Category = "external_market"
)

// Categories returns all categories in canonical order.
func Categories() []Category {
	return []Category{
		CategoryExternalMarket,
		CategoryFuturesContract,
		CategoryReplacement,
		CategorySimpleIndicator,
		CategoryStateIndicator,
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategorySimpleIndicator, CategoryStateIndicator, CategoryFuturesContract,
		CategoryReplacement, CategoryExternalMarket:
		return true
	}
	return false
}

// SimpleIndicator is a daily indicator quotation without regional breakdown.
type SimpleIndicator struct {
	Date             string   `parquet:"date"`
	IndicatorName    string   `parquet:"indicator_name"`
	PriceLocal       *float64 `parquet:"price_local,optional"`
	VariationPct     *float64 `parquet:"variation_pct,optional"`
	PriceAltCurrency *float64 `parquet:"price_alt_currency,optional"`
}

// StateIndicator is a daily indicator quotation broken down by state or municipality.
type StateIndicator struct {
	Date             string   `parquet:"date"`
	IndicatorName    string   `parquet:"indicator_name"`
	State            string   `parquet:"state"`
	PriceLocal       *float64 `parquet:"price_local,optional"`
	VariationPct     *float64 `parquet:"variation_pct,optional"`
	PriceAltCurrency *float64 `parquet:"price_alt_currency,optional"`
}

// FuturesContract is one futures contract month closing quotation.
type FuturesContract struct {
	Date          string   `parquet:"date"`
	ContractMonth string   `parquet:"contract_month"`
	IndicatorName string   `parquet:"indicator_name"`
	Price         *float64 `parquet:"price,optional"`
	Variation     *float64 `parquet:"variation,optional"`
}

// Replacement carries cattle replacement prices per state and animal stage.
type Replacement struct {
	Date             string   `parquet:"date"`
	State            string   `parquet:"state"`
	Category         string   `parquet:"category"`
	Desmama          *float64 `parquet:"desmama,optional"`
	WeanedFemaleMale *float64 `parquet:"weaned_female_male,optional"`
	Yearling         *float64 `parquet:"yearling,optional"`
	CowOrLeanSteer   *float64 `parquet:"cow_or_lean_steer,optional"`
}

// ExternalMarket is one contract quotation from a foreign exchange.
type ExternalMarket struct {
	Date      string   `parquet:"date"`
	Market    string   `parquet:"market"`
	Contract  string   `parquet:"contract"`
	Price     *float64 `parquet:"price,optional"`
	Variation *float64 `parquet:"variation,optional"`
}

// Records is the closed tagged variant holding one category's rows for
// one date. Exactly the slice matching Category is populated.
type Records struct {
	Category Category

	Simple      []SimpleIndicator
	States      []StateIndicator
	Futures     []FuturesContract
	Replacement []Replacement
	External    []ExternalMarket
}

// Len returns the number of rows behind the tag.
func (r Records) Len() int {
	switch r.Category {
	case CategorySimpleIndicator:
		return len(r.Simple)
	case CategoryStateIndicator:
		return len(r.States)
	case CategoryFuturesContract:
		return len(r.Futures)
	case CategoryReplacement:
		return len(r.Replacement)
	case CategoryExternalMarket:
		return len(r.External)
	}
	return 0
}

// Validate enforces the per-tag fixed schema: the tag must be known,
// only the matching slice may be populated, and every row must carry
// the given calendar day.
func (r Records) Validate(date string) error {
	if !r.Category.Valid() {
		return &SchemaViolationError{Category: r.Category, Reason: "unknown category"}
	}

	counts := map[Category]int{
		CategorySimpleIndicator: len(r.Simple),
		CategoryStateIndicator:  len(r.States),
		CategoryFuturesContract: len(r.Futures),
		CategoryReplacement:     len(r.Replacement),
		CategoryExternalMarket:  len(r.External),
	}
	for cat, n := range counts {
		if cat != r.Category && n > 0 {
			return &SchemaViolationError{
				Category: r.Category,
				Reason:   "rows present for foreign category " + string(cat),
			}
		}
	}

	ok := true
	switch r.Category {
	case CategorySimpleIndicator:
		for _, row := range r.Simple {
			ok = ok && row.Date == date
		}
	case CategoryStateIndicator:
		for _, row := range r.States {
			ok = ok && row.Date == date
		}
	case CategoryFuturesContract:
		for _, row := range r.Futures {
			ok = ok && row.Date == date
		}
	case CategoryReplacement:
		for _, row := range r.Replacement {
			ok = ok && row.Date == date
		}
	case CategoryExternalMarket:
		for _, row := range r.External {
			ok = ok && row.Date == date
		}
	}
	if !ok {
		return &SchemaViolationError{Category: r.Category, Reason: "row date does not match " + date}
	}
	return nil
}

// RawTable is one scraped HTML table: the section title, the header row
// if one was recognized, and the remaining cell rows.
type RawTable struct {
	Title  string
	Header []string
	Rows   [][]string
}

// RawDay is the unparsed result of fetching one calendar date. It is
// opaque to everything except the normalizer.
type RawDay struct {
	Date        time.Time
	URL         string
	CollectedAt time.Time
	Tables      []RawTable
}
