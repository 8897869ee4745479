package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"NewsReconciler/internal/ports"
)

// Client queries the snapshot availability API for the closest archived
// copy of a page.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

var _ ports.ArchiveLookup = (*Client)(nil)

// NewClient builds a lookup client for the given availability endpoint.
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

// Lookup returns the closest snapshot URL and its capture timestamp, or
// empty strings when no snapshot exists.
func (c *Client) Lookup(ctx context.Context, pageURL string) (string, string, error) {
	query := url.Values{}
	query.Set("url", pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsReconciler/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("query archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("archive returned %s", resp.Status)
	}

	var payload struct {
		ArchivedSnapshots struct {
			Closest struct {
				URL       string `json:"url"`
				Timestamp string `json:"timestamp"`
				Available bool   `json:"available"`
			} `json:"closest"`
		} `json:"archived_snapshots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", "", fmt.Errorf("decode archive response: %w", err)
	}

	closest := payload.ArchivedSnapshots.Closest
	return closest.URL, closest.Timestamp, nil
}
