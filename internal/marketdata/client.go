package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches financial data from the Yahoo Finance chart API.
// It implements Provider.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a provider client with default HTTP settings.
func NewClient() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithBaseURL creates a client against a custom endpoint.
// Used by tests to point the client at a local stub server.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// History fetches daily bars for a symbol within [start, end] inclusive.
// Interval accepts the chart API values (1d, 1wk, 1mo); the analytics engine
// only ever asks for 1d. Rows with a null or non-positive close are dropped.
//
// Returns ErrNoData when the provider has nothing for the ticker in range.
func (c *Client) History(ctx context.Context, ticker string, start, end time.Time, interval string) ([]Bar, error) {
	if interval == "" {
		interval = "1d"
	}
	// period2 is exclusive in the chart API, so push it one day past end.
	url := fmt.Sprintf(
		"%s/v8/finance/chart/%s?interval=%s&period1=%d&period2=%d",
		c.baseURL,
		ticker,
		interval,
		start.UTC().Unix(),
		end.UTC().Add(24*time.Hour).Unix(),
	)

	result, err := c.query(ctx, url)
	if err != nil {
		return nil, err
	}

	bars, err := parseBars(result)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}
	return bars, nil
}

// LastClose fetches the most recent available close for a symbol, using a
// trailing 7-day window so weekends and holidays still resolve a price.
func (c *Client) LastClose(ctx context.Context, ticker string) (Quote, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=7d", c.baseURL, ticker)

	result, err := c.query(ctx, url)
	if err != nil {
		return Quote{}, err
	}

	bars, err := parseBars(result)
	if err != nil || len(bars) == 0 {
		return Quote{}, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}

	last := bars[len(bars)-1]
	return Quote{
		Ticker: strings.ToUpper(ticker),
		Date:   last.Date,
		Close:  last.Close,
	}, nil
}

// parseBars converts a raw chart response into a date-ordered bar slice.
// Validates that timestamps and close prices are present and aligned. Rows
// whose close is null (halted or missing session) or non-positive are
// dropped; a zero close is never a real price and would poison any valuation
// built on the series.
func parseBars(result Response) ([]Bar, error) {
	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("no results returned")
	}
	r := result.Chart.Result[0]

	if len(r.Timestamp) == 0 {
		return nil, fmt.Errorf("no price data returned")
	}
	if len(r.Indicators.Quote) == 0 || len(r.Indicators.Quote[0].Close) == 0 {
		return nil, fmt.Errorf("no close prices returned")
	}
	quote := r.Indicators.Quote[0]
	if len(quote.Close) != len(r.Timestamp) {
		return nil, fmt.Errorf("mismatched data lengths")
	}

	at := func(values []*float64, i int) float64 {
		if i < len(values) && values[i] != nil {
			return *values[i]
		}
		return 0
	}

	bars := make([]Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if quote.Close[i] == nil || *quote.Close[i] <= 0 {
			continue
		}
		closePrice := *quote.Close[i]
		var volume int64
		if i < len(quote.Volume) {
			volume = quote.Volume[i]
		}
		bars = append(bars, Bar{
			Date:   time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  closePrice,
			Volume: volume,
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no valid close prices returned")
	}
	return bars, nil
}

// query executes a chart API request and decodes the response.
func (c *Client) query(ctx context.Context, url string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return Response{}, ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		return Response{}, err
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("provider error: %s", *response.Chart.Error)
	}

	return response, nil
}
