package marketdata_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/portfolio-analytics-backend/internal/marketdata"
)

// chartJSON builds a minimal chart API payload from (unix timestamp, close)
// pairs.
func chartJSON(timestamps []int64, closes []float64) string {
	ts := ""
	cs := ""
	for i := range timestamps {
		if i > 0 {
			ts += ","
			cs += ","
		}
		ts += fmt.Sprintf("%d", timestamps[i])
		cs += fmt.Sprintf("%g", closes[i])
	}
	return fmt.Sprintf(`{
		"chart": {
			"result": [{
				"meta": {"currency": "USD", "symbol": "AAPL"},
				"timestamp": [%s],
				"indicators": {"quote": [{"close": [%s], "open": [%s], "high": [%s], "low": [%s], "volume": []}]}
			}],
			"error": null
		}
	}`, ts, cs, cs, cs, cs)
}

// TestClient_History tests chart response parsing against a stub server.
func TestClient_History(t *testing.T) {
	day := func(d int) int64 {
		return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC).Unix()
	}

	t.Run("parses daily bars", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "/v8/finance/chart/AAPL")
			fmt.Fprint(w, chartJSON([]int64{day(1), day(4)}, []float64{100, 102.5}))
		}))
		defer server.Close()

		client := marketdata.NewClientWithBaseURL(server.URL)
		bars, err := client.History(
			context.Background(), "AAPL",
			time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
			"1d",
		)

		require.NoError(t, err)
		require.Len(t, bars, 2)
		assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), bars[0].Date)
		assert.Equal(t, 102.5, bars[1].Close)
	})

	t.Run("drops null and zero closes", func(t *testing.T) {
		// Halted or missing sessions arrive as JSON nulls in the close array;
		// those rows must vanish instead of becoming zero-priced bars.
		payload := fmt.Sprintf(`{
			"chart": {
				"result": [{
					"meta": {"currency": "USD", "symbol": "AAPL"},
					"timestamp": [%d, %d, %d, %d],
					"indicators": {"quote": [{
						"close": [100, null, 0, 102],
						"open": [100, null, 0, 102],
						"high": [100, null, 0, 102],
						"low": [100, null, 0, 102],
						"volume": [1000, null, 0, 1000]
					}]}
				}],
				"error": null
			}
		}`, day(1), day(4), day(5), day(6))
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, payload)
		}))
		defer server.Close()

		client := marketdata.NewClientWithBaseURL(server.URL)
		bars, err := client.History(
			context.Background(), "AAPL",
			time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC),
			"1d",
		)

		require.NoError(t, err)
		require.Len(t, bars, 2)
		assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), bars[0].Date)
		assert.Equal(t, time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC), bars[1].Date)
		assert.Equal(t, 102.0, bars[1].Close)
	})

	t.Run("unknown symbol maps to ErrNoData", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := marketdata.NewClientWithBaseURL(server.URL)
		_, err := client.History(
			context.Background(), "NOPE",
			time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
			"1d",
		)

		assert.ErrorIs(t, err, marketdata.ErrNoData)
	})

	t.Run("server errors are not ErrNoData", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := marketdata.NewClientWithBaseURL(server.URL)
		_, err := client.History(
			context.Background(), "AAPL",
			time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
			"1d",
		)

		require.Error(t, err)
		assert.NotErrorIs(t, err, marketdata.ErrNoData)
	})
}

// TestClient_LastClose tests the trailing-window close lookup.
func TestClient_LastClose(t *testing.T) {
	day := func(d int) int64 {
		return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC).Unix()
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartJSON([]int64{day(1), day(4)}, []float64{100, 104}))
	}))
	defer server.Close()

	client := marketdata.NewClientWithBaseURL(server.URL)
	quote, err := client.LastClose(context.Background(), "aapl")

	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Ticker)
	assert.Equal(t, 104.0, quote.Close)
	assert.Equal(t, time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC), quote.Date)
}
