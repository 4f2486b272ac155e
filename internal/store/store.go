// Package store implements the partitioned on-disk parquet store for
// normalized quotation records.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/agrodata/cotacoes-etl/internal/quotes"
)

// Store owns the partition tree under root. It is safe for concurrent
// use as long as no two writers target the same (category, date) pair,
// which the orchestrator guarantees by dispatching one date per unit.
type Store struct {
	root string
	log  *zap.Logger
}

// New creates the output root if needed and returns a Store.
func New(root string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create output root %s: %w", root, err)
	}
	return &Store{root: root, log: log}, nil
}

// Root returns the partition tree root path.
func (s *Store) Root() string { return s.root }

// WriteDate idempotently persists one category's full row set for one
// date, replacing any prior file for that (category, date) pair. An
// empty row set is a no-op: absence of the file is how a category not
// published on a date is represented.
func (s *Store) WriteDate(ctx context.Context, date time.Time, recs quotes.Records) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := quotes.DateKey(date)
	if err := recs.Validate(key); err != nil {
		return err
	}
	if recs.Len() == 0 {
		return nil
	}

	path := datePath(s.root, recs.Category, key)

	var err error
	switch recs.Category {
	case quotes.CategorySimpleIndicator:
		err = writeParquetFile(path, recs.Simple)
	case quotes.CategoryStateIndicator:
		err = writeParquetFile(path, recs.States)
	case quotes.CategoryFuturesContract:
		err = writeParquetFile(path, recs.Futures)
	case quotes.CategoryReplacement:
		err = writeParquetFile(path, recs.Replacement)
	case quotes.CategoryExternalMarket:
		err = writeParquetFile(path, recs.External)
	}
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", recs.Category, key, err)
	}

	s.log.Debug("partition file written",
		zap.String("category", string(recs.Category)),
		zap.String("date", key),
		zap.Int("rows", recs.Len()),
	)
	return nil
}

// Exists reports whether a partition file is present for (category, date).
func (s *Store) Exists(cat quotes.Category, date time.Time) bool {
	_, err := os.Stat(datePath(s.root, cat, quotes.DateKey(date)))
	return err == nil
}

// HasDate reports whether any category holds a file for the date. The
// orchestrator uses this as its skip probe: the set of categories a
// date publishes is unknowable before fetching, so one stored category
// means the date was already collected.
func (s *Store) HasDate(date time.Time) bool {
	for _, cat := range quotes.Categories() {
		if s.Exists(cat, date) {
			return true
		}
	}
	return false
}

// ReadRange loads every partition file for the given categories whose
// date falls in [start, end], ascending by (category, date). Only the
// (year, month) directories intersecting the bounds are touched.
func (s *Store) ReadRange(ctx context.Context, cats []quotes.Category, start, end time.Time) ([]quotes.Records, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end %s before start %s", quotes.DateKey(end), quotes.DateKey(start))
	}
	if len(cats) == 0 {
		cats = quotes.Categories()
	}

	var out []quotes.Records
	for _, cat := range cats {
		if !cat.Valid() {
			return nil, fmt.Errorf("unknown category %q", cat)
		}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !s.Exists(cat, d) {
				continue
			}
			recs, err := s.readDate(cat, quotes.DateKey(d))
			if err != nil {
				return nil, fmt.Errorf("read %s/%s: %w", cat, quotes.DateKey(d), err)
			}
			out = append(out, recs)
		}
	}
	return out, nil
}

func (s *Store) readDate(cat quotes.Category, date string) (quotes.Records, error) {
	path := datePath(s.root, cat, date)
	recs := quotes.Records{Category: cat}

	var err error
	switch cat {
	case quotes.CategorySimpleIndicator:
		recs.Simple, err = readParquetFile[quotes.SimpleIndicator](path)
	case quotes.CategoryStateIndicator:
		recs.States, err = readParquetFile[quotes.StateIndicator](path)
	case quotes.CategoryFuturesContract:
		recs.Futures, err = readParquetFile[quotes.FuturesContract](path)
	case quotes.CategoryReplacement:
		recs.Replacement, err = readParquetFile[quotes.Replacement](path)
	case quotes.CategoryExternalMarket:
		recs.External, err = readParquetFile[quotes.ExternalMarket](path)
	}
	return recs, err
}

// CategorySummary aggregates one category's partition files.
type CategorySummary struct {
	Files   int
	Bytes   int64
	MinDate string
	MaxDate string
}

// Summary describes the whole partition tree.
type Summary struct {
	Categories map[quotes.Category]CategorySummary
	TotalFiles int
	TotalBytes int64
}

// Summarize walks the partition tree and reports file counts, sizes
// and date coverage per category.
func (s *Store) Summarize() (Summary, error) {
	sum := Summary{Categories: make(map[quotes.Category]CategorySummary)}

	for _, cat := range quotes.Categories() {
		catDir := filepath.Join(s.root, string(cat))
		if _, err := os.Stat(catDir); os.IsNotExist(err) {
			continue
		}

		var cs CategorySummary
		err := filepath.WalkDir(catDir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			date, ok := parseFileDate(d.Name())
			if !ok {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			key := quotes.DateKey(date)
			cs.Files++
			cs.Bytes += info.Size()
			if cs.MinDate == "" || key < cs.MinDate {
				cs.MinDate = key
			}
			if key > cs.MaxDate {
				cs.MaxDate = key
			}
			return nil
		})
		if err != nil {
			return Summary{}, fmt.Errorf("walk %s: %w", catDir, err)
		}

		if cs.Files > 0 {
			sum.Categories[cat] = cs
			sum.TotalFiles += cs.Files
			sum.TotalBytes += cs.Bytes
		}
	}
	return sum, nil
}
