package marketdata

import "time"

// Response represents the raw JSON response structure from the Yahoo Finance
// chart API. This type maps directly to the chart response format, containing
// nested structures for metadata, timestamps, and price indicators.
type Response struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency     string `json:"currency"`
				Symbol       string `json:"symbol"`
				ExchangeName string `json:"exchangeName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				// Price arrays use pointers because the chart API reports
				// halted or missing sessions as JSON nulls; a plain float64
				// would silently read those as 0.
				Quote []struct {
					Open   []*float64 `json:"open"`
					Close  []*float64 `json:"close"`
					Volume []int64    `json:"volume"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *string `json:"error"`
	} `json:"chart"`
}

// Bar represents a single day's OHLCV data returned by the provider.
// Date carries only the day; the time component is midnight UTC.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Quote is the most recent closing price known for a ticker.
type Quote struct {
	Ticker string
	Date   time.Time
	Close  float64
}
