package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tearsheet = `<html><body>
<table class="mod-ui-table">
<tr><th>P/E (TTM)</th><td>21.35</td></tr>
<tr><th>Market cap</th><td>45.12bn USD</td></tr>
<tr><th>PEG ratio</th><td>1.80</td></tr>
<tr><th>Price/Book</th><td>2.10</td></tr>
</table>
<table class="mod-ui-table">
<tr><td>Return on equity</td><td>18.50%</td></tr>
<tr><td>Net profit margin</td><td>12.00%</td></tr>
<tr><td>Total debt/total equity</td><td>0.42</td></tr>
<tr><td>Current ratio</td><td>1.90</td></tr>
<tr><td>Revenue growth rate</td><td>11.2%</td></tr>
<tr><td>EPS growth rate</td><td>--</td></tr>
<tr><td>Dividend yield</td><td>2.1%</td></tr>
</table></body></html>`

func newFTServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	logins := &atomic.Int32{}
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.Method != http.MethodPost || r.PostForm.Get("username") != "analyst" || r.PostForm.Get("password") != "pw" {
			http.Error(w, "denied", http.StatusForbidden)
			return
		}
		logins.Add(1)
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "ok", Path: "/"})
	})
	requireSession := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie("session"); err != nil || c.Value != "ok" {
				http.Error(w, "login required", http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("/data/equities/tearsheet/summary", requireSession(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("s") != "XOM" {
			w.Write([]byte(`<html><body><p>No results</p></body></html>`))
			return
		}
		w.Write([]byte(tearsheet))
	}))
	mux.HandleFunc("/data/indices/tearsheet/constituents", requireSession(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "INX:IOM", r.URL.Query().Get("s"))
		w.Write([]byte(`<table><tbody>
<tr><td><span>Apple Inc</span><span>AAPL:NSQ</span></td><td>1</td></tr>
<tr><td><span>Berkshire</span><span>BRK.B:NYQ</span></td><td>2</td></tr>
</tbody></table>`))
	}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, logins
}

func TestFTFetcher_FetchRatios(t *testing.T) {
	srv, logins := newFTServer(t)
	f := NewFTFetcher(srv.URL, "analyst", "pw", "", 5*time.Second, zerolog.Nop())

	s, err := f.FetchRatios(context.Background(), "xom")
	require.NoError(t, err)
	assert.Equal(t, "XOM", s.Ticker)
	assert.Equal(t, "ft", s.Source)
	assert.InDelta(t, 21.35, *s.TrailingPE, 1e-9)
	assert.InDelta(t, 45.12e9, *s.MarketCap, 1)
	assert.InDelta(t, 0.185, *s.ReturnOnEquity, 1e-9)
	assert.InDelta(t, 0.42, *s.DebtToEquity, 1e-9)
	assert.InDelta(t, 0.112, *s.RevenueGrowth, 1e-9)
	assert.Nil(t, s.EarningsGrowth)
	assert.False(t, s.Complete())

	_, err = f.FetchRatios(context.Background(), "XOM")
	require.NoError(t, err)
	assert.Equal(t, int32(1), logins.Load(), "session is reused")
}

func TestFTFetcher_UnknownTicker(t *testing.T) {
	srv, _ := newFTServer(t)
	f := NewFTFetcher(srv.URL, "analyst", "pw", "", 5*time.Second, zerolog.Nop())
	_, err := f.FetchRatios(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFTFetcher_BadCredentials(t *testing.T) {
	srv, _ := newFTServer(t)
	f := NewFTFetcher(srv.URL, "analyst", "wrong", "", 5*time.Second, zerolog.Nop())
	_, err := f.FetchRatios(context.Background(), "XOM")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login")
}

func TestFTFetcher_FetchUniverse(t *testing.T) {
	srv, _ := newFTServer(t)
	f := NewFTFetcher(srv.URL, "analyst", "pw", "", 5*time.Second, zerolog.Nop())
	tickers, err := f.FetchUniverse(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "BRK-B"}, tickers)
}

func TestParseFTValue(t *testing.T) {
	tests := []struct {
		raw  string
		kind ftValueKind
		want float64
		ok   bool
	}{
		{"21.35", ftPlain, 21.35, true},
		{"1,204.5", ftPlain, 1204.5, true},
		{"--", ftPlain, 0, false},
		{"", ftPlain, 0, false},
		{"n/a", ftPercent, 0, false},
		{"18.50%", ftPercent, 0.185, true},
		{"-4.2%", ftPercent, -0.042, true},
		{"45.12bn USD", ftMoney, 45.12e9, true},
		{"2.9tn", ftMoney, 2.9e12, true},
		{"$850M", ftMoney, 850e6, true},
		{"1.5B", ftMoney, 1.5e9, true},
		{"12k", ftMoney, 12e3, true},
		{"abc", ftMoney, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parseFTValue(tt.raw, tt.kind)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-6*max(1, tt.want))
		})
	}
}
