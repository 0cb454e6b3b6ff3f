// Package node is the chain node REST API client. It is the only place
// network transport lives; retry and backoff stay here, out of the
// normalization engine.
package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sks-explorer/internal/domain"
	"sks-explorer/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// Client talks to the node REST API over HTTP.
type Client struct {
	endpoint    string
	spamListURL string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithSpamListURL sets the URL the spam denylist is served from.
func WithSpamListURL(u string) ClientOption {
	return func(c *Client) {
		c.spamListURL = u
	}
}

// NewClient creates a node API client for the given base endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    strings.TrimRight(endpoint, "/"),
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError is the node's JSON error body.
type apiError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("node API error %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// IsNotFound reports whether err is the node saying the requested
// resource does not exist, as opposed to the node being unreachable.
func IsNotFound(err error) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// get performs a GET with retries and exponential backoff. Server errors
// and transport failures are retried; client errors are not.
func (c *Client) get(ctx context.Context, endpoint, rawURL string, result interface{}) error {
	start := time.Now()
	err := c.doGet(ctx, rawURL, result)
	observability.RecordNodeRequest(endpoint, time.Since(start).Seconds(), err)
	return err
}

func (c *Client) doGet(ctx context.Context, rawURL string, result interface{}) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: HTTP %d", resp.StatusCode)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := &apiError{Status: resp.StatusCode}
			if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil {
				apiErr.Message = strings.TrimSpace(string(body))
			}
			return apiErr
		}

		if result != nil {
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("unmarshal response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("request failed after %d retries: %w", c.maxRetries, lastErr)
}

// AssetDetails fetches metadata for one issued asset.
func (c *Client) AssetDetails(ctx context.Context, assetID string) (domain.AssetDetails, error) {
	var details domain.AssetDetails
	u := c.endpoint + "/assets/details/" + url.PathEscape(assetID)
	if err := c.get(ctx, "assets_details", u, &details); err != nil {
		return domain.AssetDetails{}, fmt.Errorf("asset details %s: %w", assetID, err)
	}
	return details, nil
}

// TransactionByID fetches one transaction with full node detail.
func (c *Client) TransactionByID(ctx context.Context, txID string) (*domain.RawTransaction, error) {
	var tx domain.RawTransaction
	u := c.endpoint + "/transactions/info/" + url.PathEscape(txID)
	if err := c.get(ctx, "transactions_info", u, &tx); err != nil {
		return nil, fmt.Errorf("transaction %s: %w", txID, err)
	}
	return &tx, nil
}

// TransactionsByAddress fetches the most recent transactions of an
// address, newest first. The node wraps the list in an outer array.
func (c *Client) TransactionsByAddress(ctx context.Context, address string, limit int, after string) ([]*domain.RawTransaction, error) {
	u := c.endpoint + "/transactions/address/" + url.PathEscape(address) + "/limit/" + strconv.Itoa(limit)
	if after != "" {
		u += "?after=" + url.QueryEscape(after)
	}

	var pages [][]*domain.RawTransaction
	if err := c.get(ctx, "transactions_address", u, &pages); err != nil {
		return nil, fmt.Errorf("transactions for %s: %w", address, err)
	}
	if len(pages) == 0 {
		return nil, nil
	}
	return pages[0], nil
}

// transactionInfo is the subset of /transactions/info used for state
// change lookups.
type transactionInfo struct {
	StateChanges *domain.StateChanges `json:"stateChanges"`
}

// LoadStateChanges fetches the ledger side effects of a contract
// invocation. Callers tolerate failure and treat it as no extra data.
func (c *Client) LoadStateChanges(ctx context.Context, txID string) (*domain.StateChanges, error) {
	var info transactionInfo
	u := c.endpoint + "/transactions/info/" + url.PathEscape(txID)
	if err := c.get(ctx, "state_changes", u, &info); err != nil {
		return nil, fmt.Errorf("state changes %s: %w", txID, err)
	}
	if info.StateChanges == nil {
		return nil, errors.New("transaction carries no state changes")
	}
	return info.StateChanges, nil
}

// AddressBalance is the node's balance breakdown for one address.
type AddressBalance struct {
	Address    string `json:"address"`
	Regular    int64  `json:"regular"`
	Generating int64  `json:"generating"`
	Available  int64  `json:"available"`
	Effective  int64  `json:"effective"`
}

// BalanceDetails fetches an address's balance breakdown.
func (c *Client) BalanceDetails(ctx context.Context, address string) (AddressBalance, error) {
	var balance AddressBalance
	u := c.endpoint + "/addresses/balance/details/" + url.PathEscape(address)
	if err := c.get(ctx, "balance_details", u, &balance); err != nil {
		return AddressBalance{}, fmt.Errorf("balance for %s: %w", address, err)
	}
	return balance, nil
}

// SpamList fetches the raw spam denylist lines from the configured URL.
func (c *Client) SpamList(ctx context.Context) ([]string, error) {
	if c.spamListURL == "" {
		return nil, errors.New("spam list URL not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.spamListURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	observability.RecordNodeRequest("spam_list", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("fetch spam list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch spam list: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read spam list: %w", err)
	}
	return strings.Split(string(body), "\n"), nil
}
