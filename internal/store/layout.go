package store

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/agrodata/cotacoes-etl/internal/quotes"
)

// One file per (category, date), grouped category/year/month. A date's
// re-ingestion therefore never touches another date's file, which is
// what makes concurrent multi-date writes safe without locks.
const (
	fileNamePrefix = "cotacoes_"
	fileNameSuffix = ".parquet"
)

func fileName(date string) string {
	return fileNamePrefix + date + fileNameSuffix
}

// datePath builds <root>/<category>/<year>/<month>/cotacoes_<date>.parquet.
func datePath(root string, cat quotes.Category, date string) string {
	return filepath.Join(root, string(cat), date[:4], date[5:7], fileName(date))
}

// parseFileDate recovers the calendar day from a partition file name.
func parseFileDate(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, fileNamePrefix) || !strings.HasSuffix(name, fileNameSuffix) {
		return time.Time{}, false
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(name, fileNamePrefix), fileNameSuffix)
	t, err := time.Parse(quotes.DateLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
