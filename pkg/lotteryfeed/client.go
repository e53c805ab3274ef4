package lotteryfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ArowuTest/raffle-backend/internal/engine"
)

var _ engine.ExternalSource = (*Client)(nil)

// Client fetches winning numbers from a public lottery result feed
type Client struct {
	URL     string
	MockAPI bool
	client  *http.Client

	mu  sync.Mutex
	rng *rand.Rand
}

// drawResponse is the payload served by the result feed
type drawResponse struct {
	Contest string   `json:"contest"`
	Numbers []string `json:"numbers"`
}

// NewClient creates a new lottery feed client
func NewClient(url string, mockAPI bool) *Client {
	return &Client{
		URL:     url,
		MockAPI: mockAPI,
		client:  &http.Client{Timeout: 10 * time.Second},
		rng:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x4f1bbcdcbfa53e0a)),
	}
}

// WinningNumbers returns up to count numbers from the latest published result
func (c *Client) WinningNumbers(ctx context.Context, count int, cfg engine.EffectiveConfig) ([]string, error) {
	if count <= 0 {
		return []string{}, nil
	}
	if c.MockAPI {
		return c.mockWinningNumbers(count, cfg), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build lottery feed request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lottery feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lottery feed returned status %d", resp.StatusCode)
	}

	var body drawResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode lottery feed response: %w", err)
	}

	numbers := make([]string, 0, len(body.Numbers))
	for _, raw := range body.Numbers {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			raw = engine.FormatNumber(n, cfg)
		}
		numbers = append(numbers, raw)
		if len(numbers) == count {
			break
		}
	}
	if len(numbers) == 0 {
		return nil, fmt.Errorf("lottery feed contest %q returned no numbers", body.Contest)
	}
	return numbers, nil
}

// mockWinningNumbers picks distinct random numbers in the raffle's range
func (c *Client) mockWinningNumbers(count int, cfg engine.EffectiveConfig) []string {
	space := cfg.SpaceSize()
	if count > space {
		count = space
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[int]struct{}, count)
	numbers := make([]string, 0, count)
	for len(numbers) < count {
		n := cfg.NumberMin + c.rng.IntN(space)
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		numbers = append(numbers, engine.FormatNumber(n, cfg))
	}
	return numbers
}
