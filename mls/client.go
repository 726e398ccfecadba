package mls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

var (
	ErrDailyLimitExceeded = errors.New("mls: daily request limit exceeded")
	ErrPayloadTooLarge    = errors.New("mls: payload too large")
	ErrNotConfigured      = errors.New("mls: provider credentials missing")
)

// StatusError is returned for non-2xx provider responses.
type StatusError struct {
	Code int
	Body map[string]any
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mls error %d: %v", e.Code, e.Body)
}

// Quota is consulted before every outbound call.
type Quota interface {
	Take(ctx context.Context) error
}

type Config struct {
	BaseURL       string
	APIKey        string
	APISecret     string
	RatePerSecond float64
	Timeout       time.Duration
	Quota         Quota
	Logger        *slog.Logger
}

type Client struct {
	key     string
	secret  string
	baseURL string
	http    *retryablehttp.Client
	limiter *rate.Limiter
	quota   Quota
}

const defaultBaseURL = "https://api.simplyrets.com"

func NewClient(cfg Config) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 900 * time.Millisecond
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = 6 * time.Second
	if cfg.Timeout > 0 {
		rc.HTTPClient.Timeout = cfg.Timeout
	}
	if cfg.Logger != nil {
		rc.Logger = cfg.Logger.With("component", "mls_http")
	} else {
		rc.Logger = nil
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	var lim *rate.Limiter
	if cfg.RatePerSecond > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 2)
	}
	return &Client{
		key:     cfg.APIKey,
		secret:  cfg.APISecret,
		baseURL: base,
		http:    rc,
		limiter: lim,
		quota:   cfg.Quota,
	}
}

func (c *Client) Configured() bool { return c != nil && c.key != "" }

// SearchListings issues one GET /properties call and returns the raw payload.
// Normalization is left to MapListingsPayload.
func (c *Client) SearchListings(ctx context.Context, p Params) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if c.quota != nil {
		if err := c.quota.Take(ctx); err != nil {
			return nil, err
		}
	}

	u := fmt.Sprintf("%s/properties?%s", c.baseURL, p.Values().Encode())
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")
	if c.secret != "" {
		req.SetBasicAuth(c.key, c.secret)
	} else {
		req.Header.Set("apikey", c.key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body map[string]any
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
		return nil, &StatusError{Code: resp.StatusCode, Body: body}
	}
	return ioReadAllLimit(resp.Body, 4<<20)
}

func ioReadAllLimit(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, ErrPayloadTooLarge
	}
	return b, nil
}
