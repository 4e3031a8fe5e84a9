package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestGetDecodesBody(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if r.URL.Path != "/spot/tickers" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"last":"1.25"}]`))
	}))
	defer srv.Close()

	client := New(srv.URL+"/", time.Second, zap.NewNop())
	var out []map[string]string
	err := client.Get(context.Background(), "/spot/tickers", url.Values{"currency_pair": {"ABC_USDT"}}, &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotQuery != "currency_pair=ABC_USDT" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if len(out) != 1 || out[0]["last"] != "1.25" {
		t.Fatalf("unexpected body %v", out)
	}
}

func TestGetNon2xxIsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"label":"SERVER_ERROR"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, zap.NewNop())
	var out any
	err := client.Get(context.Background(), "/futures/usdt/contracts", nil, &out)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network failure, got %v", err)
	}
}

func TestGetMalformedBodyIsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, zap.NewNop())
	var out []string
	err := client.GetURL(context.Background(), srv.URL+"/x", nil, &out)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network failure, got %v", err)
	}
}

func TestGetTimeoutIsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := New(srv.URL, 20*time.Millisecond, zap.NewNop())
	var out []string
	err := client.Get(context.Background(), "/slow", nil, &out)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network failure, got %v", err)
	}
}
