package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPaprika_MarketsFlattening(t *testing.T) {
	payload := `[
		{"exchange_id":"binance","exchange_name":"Binance","pair":"BTC/USDT",
		 "base_currency_id":"btc-bitcoin","market_url":"https://binance.example/btcusdt",
		 "adjusted_volume_24h_share":12.5,
		 "quotes":{"USD":{"price":64100,"volume_24h":1200000000}}},
		{"exchange_id":"weird","exchange_name":"Weird","pair":"BTC/EUR",
		 "base_currency_id":"btc-bitcoin",
		 "quotes":{"EUR":{"price":59000,"volume_24h":100}}}
	]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/btc-bitcoin/markets" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(payload))
	}))
	defer server.Close()

	client := NewPaprikaClient(server.URL)
	records, err := client.Markets(context.Background(), "btc-bitcoin")
	if err != nil {
		t.Fatalf("Markets failed: %v", err)
	}

	// the entry without a USD quote is skipped
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.ExchangeID != "binance" || r.Pair != "BTC/USDT" {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.Price != 64100 || r.Volume24h != 1200000000 {
		t.Errorf("unexpected numbers: %+v", r)
	}
	if r.Share != 12.5 {
		t.Errorf("expected adjusted volume share 12.5, got %v", r.Share)
	}
}

func TestPaprika_TickersRequestsUSDQuotes(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tickers" {
			gotQuery = r.URL.Query().Get("quotes")
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewPaprikaClient(server.URL)
	if _, err := client.Tickers(context.Background()); err != nil {
		t.Fatalf("Tickers failed: %v", err)
	}
	if gotQuery != "USD" {
		t.Errorf("expected quotes=USD on the ticker list request, got %q", gotQuery)
	}
}

func TestPaprika_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewPaprikaClient(server.URL)
	if _, err := client.Tickers(context.Background()); err == nil {
		t.Error("expected an error for non-200 status")
	}
}
