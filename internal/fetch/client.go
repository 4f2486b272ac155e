// Package fetch implements the quotation-source fetch collaborator: a
// thin HTTP wrapper that turns one calendar date into a raw day payload.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/agrodata/cotacoes-etl/internal/quotes"
)

// Config controls the fetch client.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client fetches daily quotation pages. Safe to call concurrently for
// distinct dates: every request runs on its own collector clone.
type Client struct {
	cfg  Config
	base *colly.Collector
	log  *zap.Logger
}

// NewClient builds a Client.
func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = false
	// Retries revisit the same URL; the dedup store must not block them.
	c.AllowURLRevisit = true

	return &Client{cfg: cfg, base: c, log: log}
}

// FetchDay retrieves and extracts one date's quotation tables. A 404
// or a page without quotation tables is a definitive ErrNoData; any
// network or server failure is wrapped as transient.
func (c *Client) FetchDay(ctx context.Context, date time.Time) (quotes.RawDay, error) {
	if err := ctx.Err(); err != nil {
		return quotes.RawDay{}, err
	}

	url := fmt.Sprintf("%s/cotacoes/boi-gordo/%s", c.cfg.BaseURL, quotes.DateKey(date))

	var (
		body       []byte
		statusCode int
		fetchErr   error
	)

	collector := c.base.Clone()
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.SetRequestTimeout(c.cfg.Timeout)

	collector.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = err
	})

	if err := collector.Visit(url); err != nil && fetchErr == nil {
		fetchErr = err
	}
	collector.Wait()

	switch {
	case statusCode == http.StatusNotFound:
		return quotes.RawDay{}, quotes.ErrNoData
	case fetchErr != nil:
		return quotes.RawDay{}, quotes.Transient("fetch "+url, fetchErr)
	case statusCode < 200 || statusCode >= 300:
		return quotes.RawDay{}, quotes.Transient("fetch "+url, fmt.Errorf("status %d", statusCode))
	}

	tables, err := extractTables(bytes.NewReader(body))
	if err != nil {
		return quotes.RawDay{}, quotes.Transient("parse "+url, err)
	}
	if len(tables) == 0 {
		return quotes.RawDay{}, quotes.ErrNoData
	}

	c.log.Debug("day fetched",
		zap.String("url", url),
		zap.Int("tables", len(tables)),
	)

	return quotes.RawDay{
		Date:        date,
		URL:         url,
		CollectedAt: time.Now().UTC(),
		Tables:      tables,
	}, nil
}
