// Package quote fetches commodity prices from JSON endpoints.
//
// A quote source is a URL returning a JSON document; a JSONPath expression
// selects the price within it:
//
//	client := quote.New(quote.WithTimeout(5 * time.Second))
//	price, err := client.Quote(ctx, "https://quotes.example.com/HOOL", "$.last")
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single quote request.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps the response body read from a quote source.
const maxBodySize = 1 << 20

// Client fetches quotes over HTTP. It implements ledger.Quoter.
type Client struct {
	http   *http.Client
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a quote client.
func New(opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quote fetches source and returns the number selected by path. An empty path
// selects the whole document.
func (c *Client) Quote(ctx context.Context, source, path string) (decimal.Decimal, error) {
	doc, err := c.get(ctx, source)
	if err != nil {
		return decimal.Zero, err
	}

	if path == "" {
		path = "$"
	}
	value, err := jsonpath.Get(path, doc)
	if err != nil {
		return decimal.Zero, fmt.Errorf("evaluate %q on %s: %w", path, source, err)
	}
	// Wildcard and slice expressions return a list; keep the first match.
	if list, ok := value.([]any); ok {
		if len(list) == 0 {
			return decimal.Zero, fmt.Errorf("evaluate %q on %s: no match", path, source)
		}
		value = list[0]
	}

	number, err := toDecimal(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("evaluate %q on %s: %w", path, source, err)
	}
	return number, nil
}

func (c *Client) get(ctx context.Context, source string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid quote source %q: %w", source, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("quote fetched",
		zap.String("source", source),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", source, resp.Status)
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}
	return doc, nil
}

// toDecimal converts a JSON value to a decimal. Some sources return numbers as
// strings, occasionally with a decimal comma.
func toDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
		n, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("value %q is not a number", v)
		}
		return n, nil
	default:
		return decimal.Zero, fmt.Errorf("value %v is not a number", value)
	}
}
