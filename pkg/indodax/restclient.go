package indodax

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"obhistory/internal/history"
)

type RESTClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *RESTClient) HTTPClient() *http.Client {
	return c.httpClient
}

// GetDepth fetches the live order book for a pair. Missing sides come
// back as empty, never nil.
func (c *RESTClient) GetDepth(ctx context.Context, pair string) (*Depth, error) {
	endpoint := c.baseURL + "/api/depth/" + url.PathEscape(pair)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var depth Depth
	if err := json.Unmarshal(body, &depth); err != nil {
		return nil, fmt.Errorf("decode depth: %w", err)
	}

	if depth.Buy == nil {
		depth.Buy = []history.Level{}
	}
	if depth.Sell == nil {
		depth.Sell = []history.Level{}
	}

	return &depth, nil
}

// GetPairs fetches the tradable pair metadata. The payload is returned
// raw: this service proxies it without interpreting it.
func (c *RESTClient) GetPairs(ctx context.Context) (PairsResponse, error) {
	return c.get(ctx, c.baseURL+"/api/pairs")
}

func (c *RESTClient) GetServerTime(ctx context.Context) (*ServerTime, error) {
	body, err := c.get(ctx, c.baseURL+"/api/server_time")
	if err != nil {
		return nil, err
	}

	var st ServerTime
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("decode server time: %w", err)
	}
	return &st, nil
}

func (c *RESTClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("indodax error: status %d: %s", resp.StatusCode, body)
	}

	return body, nil
}
