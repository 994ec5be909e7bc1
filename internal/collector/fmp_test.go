package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFMPServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/key-metrics/KO", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"marketCap":2.6e11,"peRatio":24.1,"pegRatio":3.2,"pbRatio":10.1,
			"debtToEquity":1.6,"currentRatio":1.1,"roe":0.4,"netProfitMargin":0.23,
			"revenueGrowth":0.03,"earningsGrowth":null}]`))
	})
	mux.HandleFunc("/key-metrics/NONE", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/sp500_constituent", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol":"AAPL"},{"symbol":"BRK.B"},{"symbol":""},{"symbol":"KO"}]`))
	})
	mux.HandleFunc("/income-statement/KO", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"date":"2024-12-31","symbol":"KO","revenue":47061000000,"netIncome":10631000000}]`))
	})
	mux.HandleFunc("/balance-sheet-statement/KO", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"date":"2024-12-31","totalEquity":26000000000}]`))
	})
	mux.HandleFunc("/cash-flow-statement/KO", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/key-metrics/LOCKED", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"Error Message":"Invalid API KEY"}`, http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestFMP(srv *httptest.Server) *FMPFetcher {
	return NewFMPFetcher("test-key",
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithRateLimit(100),
	)
}

func TestFMPFetcher_FetchRatios(t *testing.T) {
	f := newTestFMP(newFMPServer(t))

	s, err := f.FetchRatios(context.Background(), "ko")
	require.NoError(t, err)
	assert.Equal(t, "KO", s.Ticker)
	assert.Equal(t, "fmp", s.Source)
	assert.InDelta(t, 24.1, *s.TrailingPE, 1e-9)
	assert.InDelta(t, 0.4, *s.ReturnOnEquity, 1e-9)
	assert.InDelta(t, 0.23, *s.ProfitMargin, 1e-9)
	assert.Nil(t, s.EarningsGrowth)
	assert.Equal(t, []string{"earningsGrowth"}, s.Missing())
}

func TestFMPFetcher_NoRecords(t *testing.T) {
	f := newTestFMP(newFMPServer(t))
	_, err := f.FetchRatios(context.Background(), "NONE")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFMPFetcher_APIError(t *testing.T) {
	f := newTestFMP(newFMPServer(t))
	_, err := f.FetchRatios(context.Background(), "LOCKED")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "key-metrics/LOCKED", apiErr.Endpoint)
}

func TestFMPFetcher_FetchUniverse(t *testing.T) {
	f := newTestFMP(newFMPServer(t))

	tickers, err := f.FetchUniverse(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "BRK-B", "KO"}, tickers)

	tickers, err = f.FetchUniverse(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, tickers)
}

func TestFMPFetcher_FetchStatements(t *testing.T) {
	f := newTestFMP(newFMPServer(t))

	st, err := f.FetchStatements(context.Background(), "KO")
	require.NoError(t, err)
	require.Len(t, st.Income, 1)
	assert.Equal(t, "2024-12-31", st.Income[0].Date)
	assert.Equal(t, 47061000000.0, st.Income[0].Items["revenue"])
	assert.NotContains(t, st.Income[0].Items, "symbol")
	require.Len(t, st.Balance, 1)
	assert.Empty(t, st.CashFlow)
}

func TestFMPFetcher_RespectsContext(t *testing.T) {
	f := newTestFMP(newFMPServer(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.FetchRatios(ctx, "KO")
	assert.Error(t, err)
}
