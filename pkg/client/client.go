package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/holdfast-io/holdfast/pkg/api"
	"github.com/holdfast-io/holdfast/pkg/types"
)

// Client talks to a holdfast node's HTTP API. Used by the CLI; any HTTP
// client works against the same endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the node at addr (host:port or a full
// http:// URL)
func NewClient(addr string) *Client {
	baseURL := addr
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		baseURL = "http://" + addr
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Status fetches the full node status
func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	var resp api.StatusResponse
	if err := c.get(ctx, "/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ready fetches the readiness signal. A closed gate is not an error: the
// response carries the reason either way.
func (c *Client) Ready(ctx context.Context) (*api.ReadyResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/readyz", nil)
	if err != nil {
		return nil, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach node: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusServiceUnavailable {
		return nil, fmt.Errorf("unexpected status %d from /readyz", res.StatusCode)
	}

	var resp api.ReadyResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// Peers fetches the node's membership view
func (c *Client) Peers(ctx context.Context) ([]types.PeerInfo, error) {
	var peers []types.PeerInfo
	if err := c.get(ctx, "/v1/peers", &peers); err != nil {
		return nil, err
	}
	return peers, nil
}

// Audit fetches the newest audit records, up to limit (0 means all)
func (c *Client) Audit(ctx context.Context, limit int) ([]types.AuditRecord, error) {
	var records []types.AuditRecord
	path := fmt.Sprintf("/v1/audit?limit=%d", limit)
	if err := c.get(ctx, path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ReportUpdate delivers one membership observation to the node. Returns
// whether the node applied it.
func (c *Client) ReportUpdate(ctx context.Context, update types.MembershipUpdate) (bool, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/peers/updates", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to reach node: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d from /v1/peers/updates", res.StatusCode)
	}

	var resp api.UpdateResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.Applied, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach node: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", res.StatusCode, path)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
