// Package generation talks to the external image-generation backend and the
// host that serves the images it produces.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aman-churiwal/image-relay/internal/circuitbreaker"
	"golang.org/x/time/rate"
)

const (
	maxResponseBytes = 1 << 20
	maxImageBytes    = 32 << 20
)

var ErrNoImage = errors.New("backend response contained no image key")

// StatusError reports a non-2xx response from an outbound call.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

type Image struct {
	Data        []byte
	ContentType string
	SourceURL   string
}

type Config struct {
	BackendURLs    []string
	Selector       string
	Cookie         string
	ImageHostURL   string
	Params         Params
	BackendTimeout time.Duration
	FetchTimeout   time.Duration
	// RequestsPerSecond paces backend calls; zero or less disables pacing.
	RequestsPerSecond float64
	Breaker           *circuitbreaker.CircuitBreaker
}

type Client struct {
	endpoints    selector
	cookie       string
	imageHostURL string
	params       Params
	backend      *http.Client
	fetcher      *http.Client
	limiter      *rate.Limiter
	breaker      *circuitbreaker.CircuitBreaker
	seed         func() (uint32, error)
}

func NewClient(cfg Config) (*Client, error) {
	endpoints, err := newSelector(cfg.Selector, cfg.BackendURLs)
	if err != nil {
		return nil, err
	}
	if cfg.ImageHostURL == "" {
		return nil, errors.New("image host url is required")
	}
	if cfg.BackendTimeout <= 0 {
		cfg.BackendTimeout = 60 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	breaker := cfg.Breaker
	if breaker == nil {
		breaker = circuitbreaker.New(circuitbreaker.Config{Name: "generation-backend"})
	}

	return &Client{
		endpoints:    endpoints,
		cookie:       cfg.Cookie,
		imageHostURL: strings.TrimRight(cfg.ImageHostURL, "/"),
		params:       cfg.Params,
		backend:      &http.Client{Timeout: cfg.BackendTimeout},
		fetcher:      &http.Client{Timeout: cfg.FetchTimeout},
		limiter:      limiter,
		breaker:      breaker,
		seed:         NewSeed,
	}, nil
}

type generateResponse struct {
	Images []struct {
		ImageKey string `json:"imageKey"`
	} `json:"images"`
}

// Generate submits prompt to the backend and returns the key of the produced image.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	seed, err := c.seed()
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(c.params.Payload(prompt, seed))
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("backend rate limiter: %w", err)
	}

	var key string
	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		key, err = c.post(ctx, c.endpoints.Next(), body)
		return err
	})
	return key, err
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.backend.Do(req)
	if err != nil {
		return "", fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Op: "generate", StatusCode: resp.StatusCode}
	}

	var parsed generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode backend response: %w", err)
	}

	if len(parsed.Images) == 0 || parsed.Images[0].ImageKey == "" {
		return "", ErrNoImage
	}

	return parsed.Images[0].ImageKey, nil
}

func (c *Client) ImageURL(imageKey string) string {
	return fmt.Sprintf("%s/%s.jpeg", c.imageHostURL, imageKey)
}

// FetchImage downloads the raw bytes of a generated image.
func (c *Client) FetchImage(ctx context.Context, imageKey string) (*Image, error) {
	url := c.ImageURL(imageKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.fetcher.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Op: "fetch", StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	if len(data) == 0 {
		return nil, errors.New("image body is empty")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &Image{Data: data, ContentType: contentType, SourceURL: url}, nil
}

func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}
