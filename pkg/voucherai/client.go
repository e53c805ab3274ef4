package voucherai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slog"
)

const (
	defaultApprovalRate = 0.9
	mismatchFactor      = 0.8
)

// Result is the validator's reading of a voucher image
type Result struct {
	ReadAmount float64 `json:"readAmount"`
	Approved   bool    `json:"approved"`
}

// Client represents a voucher OCR validation client
type Client struct {
	BaseURL      string
	APIKey       string
	MockAPI      bool
	ApprovalRate float64
	MockLatency  time.Duration
	client       *http.Client

	mu  sync.Mutex
	rng *rand.Rand
}

// NewClient creates a new voucher validation client
func NewClient(baseURL, apiKey string, mockAPI bool) *Client {
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		APIKey:       apiKey,
		MockAPI:      mockAPI,
		ApprovalRate: defaultApprovalRate,
		client:       &http.Client{Timeout: 15 * time.Second},
		rng:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0xda3e39cb94b95bdb)),
	}
}

// WithSource replaces the random source used in mock mode
func (c *Client) WithSource(src rand.Source) *Client {
	c.mu.Lock()
	c.rng = rand.New(src)
	c.mu.Unlock()
	return c
}

// Validate reads the amount on a voucher image and decides whether it matches the declared amount
func (c *Client) Validate(ctx context.Context, declaredAmount float64, image []byte) (*Result, error) {
	if c.MockAPI {
		return c.mockValidate(ctx, declaredAmount)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"declaredAmount": declaredAmount,
		"image":          base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode validation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/validate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build validation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voucher validation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voucher validation returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode validation response: %w", err)
	}
	return &result, nil
}

// mockValidate approves most vouchers and reads a lower amount on the rest
func (c *Client) mockValidate(ctx context.Context, declaredAmount float64) (*Result, error) {
	if c.MockLatency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.MockLatency):
		}
	}

	c.mu.Lock()
	roll := c.rng.Float64()
	c.mu.Unlock()

	if roll < c.ApprovalRate {
		return &Result{ReadAmount: declaredAmount, Approved: true}, nil
	}

	slog.Debug("Mock validator flagged voucher", "declaredAmount", declaredAmount)
	return &Result{ReadAmount: declaredAmount * mismatchFactor, Approved: false}, nil
}
