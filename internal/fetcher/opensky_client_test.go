package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"flight-state-table/internal/metrics"
	"flight-state-table/pkg/logger"
)

func newTestClient(baseURL string, opts Options) *OpenSkyClient {
	opts.BaseURL = baseURL
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	return NewOpenSkyClient(opts, logger.Discard(), metrics.NewMetrics())
}

func TestFetchRaw_ReturnsBodyVerbatim(t *testing.T) {
	payload := `{"time":1,"states":[["abc123"]]}` + "\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/states/all" {
			t.Errorf("path = %q, want /states/all", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %q, want GET", r.Method)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q, want application/json", got)
		}
		if _, _, ok := r.BasicAuth(); ok {
			t.Error("unexpected basic auth without credentials")
		}
		w.Write([]byte(payload))
	}))
	defer server.Close()

	body, err := newTestClient(server.URL, Options{}).FetchRaw(context.Background())
	if err != nil {
		t.Fatalf("FetchRaw failed: %v", err)
	}
	if string(body) != payload {
		t.Errorf("body = %q, want %q", body, payload)
	}
}

func TestFetchRaw_BasicAuthAndBoundingBox(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "pilot" || pass != "secret" {
			t.Errorf("BasicAuth = (%q, %q, %v), want (pilot, secret, true)", user, pass, ok)
		}
		q := r.URL.Query()
		if q.Get("lamin") != "45.8389" || q.Get("lomax") != "10.5226" {
			t.Errorf("query = %v, want bounding box params", q)
		}
		w.Write([]byte(`{"states":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, Options{
		Username: "pilot",
		Password: "secret",
		Box:      BoundingBox{LaMin: 45.8389, LoMin: 5.9962, LaMax: 47.8229, LoMax: 10.5226},
	})

	if _, err := client.FetchRaw(context.Background()); err != nil {
		t.Fatalf("FetchRaw failed: %v", err)
	}
}

func TestFetchRaw_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, Options{}).FetchRaw(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}

	var nerr *NetworkError
	if !errors.As(err, &nerr) || nerr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("err = %#v, want NetworkError with status 429", err)
	}
}

func TestFetchRaw_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url, Options{}).FetchRaw(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
}

func TestFetchRaw_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(server.URL, Options{Timeout: 50 * time.Millisecond})

	_, err := client.FetchRaw(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
}

func TestStatesURL(t *testing.T) {
	c := newTestClient("https://opensky-network.org/api", Options{})
	if got := c.StatesURL(); got != "https://opensky-network.org/api/states/all" {
		t.Errorf("StatesURL = %q", got)
	}
}
