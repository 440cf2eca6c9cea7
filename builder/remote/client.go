// Package remote fetches URL lists and payloads over HTTP with a shared rate
// limit and a response size cap.
package remote

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Kush-Singh-26/imgcorpus/builder/utils"
)

var (
	// ErrStatus is wrapped by StatusError for non-2xx responses
	ErrStatus = errors.New("unexpected HTTP status")
	// ErrTooLarge is returned when a body exceeds the configured cap
	ErrTooLarge = errors.New("response body too large")
)

// StatusError carries the status of a failed request
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Status, http.StatusText(e.Status))
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Options configures a Client
type Options struct {
	// RequestsPerSecond limits outgoing requests; <= 0 disables limiting.
	RequestsPerSecond float64
	// MaxResponseBytes caps every body; <= 0 uses utils.MaxResponseBytes.
	MaxResponseBytes int64
	UserAgent        string
	// Timeout bounds a whole request; 0 means only the caller's context.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is the default line and item source
type Client struct {
	hc        *http.Client
	limiter   *rate.Limiter
	maxBytes  int64
	userAgent string
	logger    *slog.Logger
}

// NewClient creates a client from opts
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	maxBytes := opts.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = utils.MaxResponseBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		hc:        hc,
		maxBytes:  maxBytes,
		userAgent: opts.UserAgent,
		logger:    logger,
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c
}

// Fetch downloads url and returns its body
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request %s: %w", url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, Status: resp.StatusCode}
	}

	buf := utils.SharedBufferPool.Get()
	defer utils.SharedBufferPool.Put(buf)

	n, err := buf.ReadFrom(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if n > c.maxBytes {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", url, ErrTooLarge, c.maxBytes)
	}
	body := bytes.Clone(buf.Bytes())

	c.logger.Debug("Fetched", "url", url, "bytes", len(body), "duration", time.Since(start))
	return body, nil
}

// FetchLines downloads url and splits it into its non-empty lines
func (c *Client) FetchLines(ctx context.Context, url string) ([]string, error) {
	body, err := c.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return SplitLines(body), nil
}

// SplitLines returns the non-empty lines of data with surrounding
// whitespace removed
func SplitLines(data []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
