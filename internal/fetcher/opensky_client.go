package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"flight-state-table/internal/metrics"
	"flight-state-table/pkg/logger"
)

// ErrNetwork matches every *NetworkError.
var ErrNetwork = errors.New("network error")

// NetworkError reports a transport or HTTP failure. StatusCode is zero when
// no response was received.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: API returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// BoundingBox restricts /states/all to a geographic area in WGS84 degrees.
type BoundingBox struct {
	LaMin float64 `yaml:"lamin"`
	LoMin float64 `yaml:"lomin"`
	LaMax float64 `yaml:"lamax"`
	LoMax float64 `yaml:"lomax"`
}

// IsZero reports whether no box is set.
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}

// Options configures an OpenSkyClient.
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	Username string
	Password string
	Box      BoundingBox
}

// OpenSkyClient is a client for fetching data from OpenSky Network API
type OpenSkyClient struct {
	baseURL    string
	httpClient *http.Client
	username   string
	password   string
	box        BoundingBox
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

// NewOpenSkyClient creates a new OpenSky API client
func NewOpenSkyClient(opts Options, log *logger.Logger, m *metrics.Metrics) *OpenSkyClient {
	return &OpenSkyClient{
		baseURL: opts.BaseURL,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		username: opts.Username,
		password: opts.Password,
		box:      opts.Box,
		logger:   log,
		metrics:  m,
	}
}

// StatesURL returns the URL fetched by FetchRaw.
func (c *OpenSkyClient) StatesURL() string {
	u := c.baseURL + "/states/all"
	if c.box.IsZero() {
		return u
	}

	q := url.Values{}
	q.Set("lamin", strconv.FormatFloat(c.box.LaMin, 'f', 4, 64))
	q.Set("lomin", strconv.FormatFloat(c.box.LoMin, 'f', 4, 64))
	q.Set("lamax", strconv.FormatFloat(c.box.LaMax, 'f', 4, 64))
	q.Set("lomax", strconv.FormatFloat(c.box.LoMax, 'f', 4, 64))
	return u + "?" + q.Encode()
}

// FetchRaw performs a single GET of /states/all and returns the body bytes
// unmodified. All failures are *NetworkError.
func (c *OpenSkyClient) FetchRaw(ctx context.Context) ([]byte, error) {
	target := c.StatesURL()
	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		c.logger.Error("Failed to create request: %v", err)
		return nil, &NetworkError{URL: target, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	// Add basic auth if credentials are provided
	if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "flight-state-table/1.0")

	if c.metrics != nil {
		c.metrics.IncrementAPIRequests()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to fetch data from OpenSky: %v", err)
		c.recordError("transport")
		return nil, &NetworkError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	latency := time.Since(startTime)
	if c.metrics != nil {
		c.metrics.RecordAPILatency(latency)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("OpenSky API returned status %d", resp.StatusCode)
		c.recordError("status")
		io.Copy(io.Discard, resp.Body)
		return nil, &NetworkError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("Failed to read response body: %v", err)
		c.recordError("read")
		return nil, &NetworkError{URL: target, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if c.metrics != nil {
		c.metrics.SetPayloadBytes(len(body))
	}
	c.logger.Debug("Fetched %d bytes from OpenSky API in %dms", len(body), latency.Milliseconds())

	return body, nil
}

func (c *OpenSkyClient) recordError(reason string) {
	if c.metrics != nil {
		c.metrics.IncrementAPIErrors(reason)
	}
}
