package locate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestResolver(t *testing.T, handler http.HandlerFunc) *AccuWeatherResolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	r, err := NewAccuWeatherResolver(AccuWeatherOpts{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	return r
}

func TestNewAccuWeatherResolver_RequiresAPIKey(t *testing.T) {
	_, err := NewAccuWeatherResolver(AccuWeatherOpts{})
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestResolve_FirstResultWins(t *testing.T) {
	var gotQuery string
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		gotQuery = req.URL.Query().Get("q")
		w.Write([]byte(`[{"Key":"294021","LocalizedName":"Moscow"},{"Key":"0","LocalizedName":"Moscow, ID"}]`))
	})

	key, err := r.Resolve(context.Background(), "Moscow")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key != "294021" {
		t.Errorf("key = %q, want 294021", key)
	}
	if gotQuery != "Moscow" {
		t.Errorf("q = %q, want Moscow", gotQuery)
	}
}

func TestResolve_EmptyResults(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := r.Resolve(context.Background(), "Atlantis")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolve_BlankCity(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		t.Error("no request expected for blank city")
	})
	if _, err := r.Resolve(context.Background(), "   "); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolve_APIError(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := r.Resolve(context.Background(), "Moscow")
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("API failure must not masquerade as NotFound")
	}
}
