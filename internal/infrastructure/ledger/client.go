package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// maxResponseSize is the maximum allowed snapshot response size (32MB)
const maxResponseSize = 32 * 1024 * 1024

// ErrUnavailable indicates the ledger could not be reached at all
var ErrUnavailable = errors.New("ledger: unavailable")

// ErrRequestFailed indicates the ledger answered with an error status
var ErrRequestFailed = errors.New("ledger: request failed")

// ErrInvalidResponse indicates the ledger answered with an unparseable body
var ErrInvalidResponse = errors.New("ledger: invalid response")

// Config holds connection settings for the external ledger API
type Config struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

// Validate checks that the config is usable
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("ledger: base URL is required")
	}
	if c.Token == "" {
		return errors.New("ledger: API token is required")
	}
	if c.TimeoutSeconds <= 0 {
		return errors.New("ledger: timeout must be positive")
	}
	return nil
}

// Client is the HTTP client for the external ledger's snapshot and order
// intake endpoints. Reads pull full-table snapshots; the only write is
// order submission.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a ledger client with the given configuration
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}, nil
}

// FetchProducts retrieves the full product snapshot
func (c *Client) FetchProducts(ctx context.Context) (*ProductSnapshot, error) {
	var snap ProductSnapshot
	if err := c.get(ctx, "/export/articulos", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// FetchStock retrieves the full stock snapshot
func (c *Client) FetchStock(ctx context.Context) (*StockSnapshot, error) {
	var snap StockSnapshot
	if err := c.get(ctx, "/export/existencias", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// FetchClients retrieves the full client snapshot
func (c *Client) FetchClients(ctx context.Context) (*ClientSnapshot, error) {
	var snap ClientSnapshot
	if err := c.get(ctx, "/export/clientes", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// FetchProvinces retrieves the full province snapshot
func (c *Client) FetchProvinces(ctx context.Context) (*ProvinceSnapshot, error) {
	var snap ProvinceSnapshot
	if err := c.get(ctx, "/export/provincias", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// FetchZones retrieves the full shipping-zone snapshot
func (c *Client) FetchZones(ctx context.Context) (*ZoneSnapshot, error) {
	var snap ZoneSnapshot
	if err := c.get(ctx, "/export/zonas", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SubmitOrder pushes a confirmed order into the ledger's intake endpoint.
// The call is not idempotent on the ledger side, so callers must guard
// against duplicate submission before invoking it.
func (c *Client) SubmitOrder(ctx context.Context, order *OrderSubmission) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("ledger: failed to encode order %s: %w", order.Number, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/import/pedidos", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("ledger: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("ledger: failed to read response: %w", err)
	}
	c.logger.Debug("ledger order intake reply",
		zap.String("number", order.Number),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", body),
	)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d submitting order %s", ErrRequestFailed, resp.StatusCode, order.Number)
	}
	return nil
}

// get performs an authenticated GET and decodes the JSON body into out
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("ledger: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("ledger: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d from %s", ErrRequestFailed, resp.StatusCode, path)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
