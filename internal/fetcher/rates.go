package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aungthurhahein/GaruduaEye/internal/series"
)

const dateLayout = "2006-01-02"

// RateAPIOptions parameterise the upstream FX rate API client.
type RateAPIOptions struct {
	BaseURL       string
	BaseCurrency  string
	QuoteCurrency string
	Timeout       time.Duration
	UserAgent     string
}

// RateAPI fetches daily reference rates from a frankfurter-compatible API.
type RateAPI struct {
	opts    RateAPIOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewRateAPI constructs a rate API client.
func NewRateAPI(opts RateAPIOptions, logger zerolog.Logger) *RateAPI {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.frankfurter.app"
	}

	return &RateAPI{
		opts:    opts,
		logger:  logger.With().Str("component", "rate_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchCurrent retrieves the latest published rate for the pair.
func (r *RateAPI) FetchCurrent(ctx context.Context) (series.Observation, error) {
	payload, err := r.get(ctx, "/latest")
	if err != nil {
		return series.Observation{}, err
	}

	var res latestResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return series.Observation{}, fmt.Errorf("decode latest response: %w", err)
	}

	rate, ok := res.Rates[r.opts.QuoteCurrency]
	if !ok {
		return series.Observation{}, fmt.Errorf("quote currency %s missing from response", r.opts.QuoteCurrency)
	}

	ts, err := time.Parse(dateLayout, res.Date)
	if err != nil {
		return series.Observation{}, fmt.Errorf("parse response date: %w", err)
	}

	obs := series.Observation{Timestamp: ts.UTC(), Rate: decimal.NewFromFloat(rate)}
	if !obs.Rate.IsPositive() {
		return series.Observation{}, errors.New("upstream returned a non-positive rate")
	}
	return obs, nil
}

// FetchHistory retrieves daily observations for the most recent windowDays,
// ordered ascending by date.
func (r *RateAPI) FetchHistory(ctx context.Context, windowDays int) ([]series.Observation, error) {
	if windowDays <= 0 {
		return nil, errors.New("windowDays must be positive")
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -(windowDays - 1))
	path := fmt.Sprintf("/%s..%s", start.Format(dateLayout), end.Format(dateLayout))

	payload, err := r.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var res rangeResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("decode range response: %w", err)
	}

	out := make([]series.Observation, 0, len(res.Rates))
	for date, rates := range res.Rates {
		rate, ok := rates[r.opts.QuoteCurrency]
		if !ok {
			continue
		}
		ts, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse history date %q: %w", date, err)
		}
		out = append(out, series.Observation{Timestamp: ts.UTC(), Rate: decimal.NewFromFloat(rate)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (r *RateAPI) get(ctx context.Context, path string) ([]byte, error) {
	if r.opts.BaseCurrency == "" || r.opts.QuoteCurrency == "" {
		return nil, errors.New("base and quote currencies required")
	}

	query := url.Values{}
	query.Set("from", r.opts.BaseCurrency)
	query.Set("to", r.opts.QuoteCurrency)
	endpoint := r.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(r.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp.StatusCode, payload)
	}
	return payload, nil
}

type latestResponse struct {
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

type rangeResponse struct {
	Rates map[string]map[string]float64 `json:"rates"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("rate api error (%d): %s", status, apiErr.Message)
	}
	if len(payload) > 0 {
		return fmt.Errorf("rate api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("rate api error (%d)", status)
}

var _ RateSource = (*RateAPI)(nil)
var _ HistorySource = (*RateAPI)(nil)
