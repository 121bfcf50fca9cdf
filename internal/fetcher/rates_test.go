package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestAPI(baseURL string) *RateAPI {
	return NewRateAPI(RateAPIOptions{
		BaseURL:       baseURL,
		BaseCurrency:  "THB",
		QuoteCurrency: "USD",
		Timeout:       time.Second,
		UserAgent:     "test",
	}, noopLogger())
}

func TestFetchCurrentMissingCurrencies(t *testing.T) {
	api := NewRateAPI(RateAPIOptions{BaseURL: "http://localhost"}, noopLogger())
	if _, err := api.FetchCurrent(context.Background()); err == nil {
		t.Fatal("missing currency pair should error")
	}
}

func TestFetchCurrentSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("from"); got != "THB" {
			t.Fatalf("expected from=THB, got %s", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"date":  "2025-06-07",
			"rates": map[string]float64{"USD": 0.0278},
		})
	}))
	defer srv.Close()

	obs, err := newTestAPI(srv.URL).FetchCurrent(context.Background())
	if err != nil {
		t.Fatalf("fetch should succeed: %v", err)
	}
	if !obs.Rate.Equal(decimal.NewFromFloat(0.0278)) {
		t.Fatalf("expected rate 0.0278, got %s", obs.Rate)
	}
	if obs.Timestamp.Format("2006-01-02") != "2025-06-07" {
		t.Fatalf("expected response date, got %s", obs.Timestamp)
	}
}

func TestFetchCurrentQuoteMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"date":  "2025-06-07",
			"rates": map[string]float64{"EUR": 0.025},
		})
	}))
	defer srv.Close()

	if _, err := newTestAPI(srv.URL).FetchCurrent(context.Background()); err == nil {
		t.Fatal("missing quote currency should error")
	}
}

func TestFetchCurrentHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "not found"})
	}))
	defer srv.Close()

	if _, err := newTestAPI(srv.URL).FetchCurrent(context.Background()); err == nil {
		t.Fatal("HTTP 404 should error")
	}
}

func TestFetchHistoryOrdered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"rates": map[string]map[string]float64{
				"2025-06-03": {"USD": 0.0272},
				"2025-06-01": {"USD": 0.0270},
				"2025-06-02": {"USD": 0.0271},
			},
		})
	}))
	defer srv.Close()

	obs, err := newTestAPI(srv.URL).FetchHistory(context.Background(), 3)
	if err != nil {
		t.Fatalf("fetch history failed: %v", err)
	}
	if len(obs) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(obs))
	}
	for i := 1; i < len(obs); i++ {
		if !obs[i-1].Timestamp.Before(obs[i].Timestamp) {
			t.Fatal("history must be ordered ascending by date")
		}
	}
}

func TestSyntheticDeterministicAndBounded(t *testing.T) {
	a := NewSyntheticSource(42, 0.0270, 0.02)
	b := NewSyntheticSource(42, 0.0270, 0.02)

	ha, err := a.FetchHistory(context.Background(), 30)
	if err != nil {
		t.Fatalf("synthetic history failed: %v", err)
	}
	hb, _ := b.FetchHistory(context.Background(), 30)

	lo := decimal.NewFromFloat(0.0270 * 0.98)
	hi := decimal.NewFromFloat(0.0270 * 1.02)
	for i := range ha {
		if !ha[i].Rate.Equal(hb[i].Rate) {
			t.Fatalf("same seed must generate same walk at %d: %s vs %s", i, ha[i].Rate, hb[i].Rate)
		}
		if ha[i].Rate.LessThan(lo) || ha[i].Rate.GreaterThan(hi) {
			t.Fatalf("rate %s escaped the configured band", ha[i].Rate)
		}
	}
}

func TestSyntheticHistoryCoversWindow(t *testing.T) {
	s := NewSyntheticSource(1, 0.0270, 0.02)
	obs, err := s.FetchHistory(context.Background(), 7)
	if err != nil {
		t.Fatalf("synthetic history failed: %v", err)
	}
	if len(obs) != 7 {
		t.Fatalf("expected 7 daily points, got %d", len(obs))
	}
	for i := 1; i < len(obs); i++ {
		if obs[i].Timestamp.Sub(obs[i-1].Timestamp) != 24*time.Hour {
			t.Fatal("synthetic points must be daily")
		}
	}
}
