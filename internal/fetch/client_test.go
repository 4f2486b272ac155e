package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agrodata/cotacoes-etl/internal/quotes"
)

const samplePage = `<html><body>
<section>
  <h2>Indicador do Boi Gordo CEPEA/B3</h2>
  <table>
    <tr><th>Data</th><th>R$/vista</th><th>Variação</th></tr>
    <tr><td>28/08/2026</td><td>310,50</td><td>+0,65</td></tr>
  </table>
</section>
<section>
  <h2>Boi Gordo B3 - Pregão Regular</h2>
  <div class="tabela">
    <table>
      <tr><th>Contrato</th><th>Fechamento</th><th>Variação</th></tr>
      <tr><td>Setembro/26</td><td>312,80</td><td>-0,40</td></tr>
      <tr><td>Outubro/26</td><td>315,10</td><td>+0,10</td></tr>
    </table>
  </div>
</section>
</body></html>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:   srv.URL,
		UserAgent: "cotacoes-etl-test",
		Timeout:   5 * time.Second,
	}, nil)
}

func TestFetchDayExtractsTables(t *testing.T) {
	t.Parallel()
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "robots.txt") {
			http.NotFound(w, r)
			return
		}
		gotPath = r.URL.Path
		fmt.Fprint(w, samplePage)
	})

	raw, err := client.FetchDay(context.Background(), date)
	require.NoError(t, err)
	require.Equal(t, "/cotacoes/boi-gordo/2026-08-28", gotPath)
	require.Equal(t, date, raw.Date)
	require.False(t, raw.CollectedAt.IsZero())
	require.Len(t, raw.Tables, 2)

	first := raw.Tables[0]
	require.Equal(t, "Indicador do Boi Gordo CEPEA/B3", first.Title)
	require.Equal(t, []string{"Data", "R$/vista", "Variação"}, first.Header)
	require.Equal(t, [][]string{{"28/08/2026", "310,50", "+0,65"}}, first.Rows)

	second := raw.Tables[1]
	require.Equal(t, "Boi Gordo B3 - Pregão Regular", second.Title)
	require.Len(t, second.Rows, 2)
}

func TestFetchDayNotFoundIsNoData(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.FetchDay(context.Background(), time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, quotes.ErrNoData)
}

func TestFetchDayEmptyPageIsNoData(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>Sem cotações</p></body></html>")
	})

	_, err := client.FetchDay(context.Background(), time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, quotes.ErrNoData)
}

func TestFetchDayServerErrorIsTransient(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusInternalServerError)
	})

	_, err := client.FetchDay(context.Background(), time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	require.True(t, quotes.IsTransient(err))
	require.False(t, errors.Is(err, quotes.ErrNoData))
}

func TestFetchDayCancelledContext(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, samplePage)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.FetchDay(ctx, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, context.Canceled)
}

func TestExtractTablesSkipsHeadingsWithoutTables(t *testing.T) {
	t.Parallel()
	page := `<html><body>
<h2>Notícias</h2>
<p>texto corrido</p>
<h2>Indicador do Boi Gordo CEPEA/B3</h2>
<table><tr><th>Data</th><th>R$/vista</th></tr><tr><td>28/08/2026</td><td>310,50</td></tr></table>
</body></html>`

	tables, err := extractTables(strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, tables, 1)
	require.Equal(t, "Indicador do Boi Gordo CEPEA/B3", tables[0].Title)
}
