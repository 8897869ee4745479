package wikibase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"NewsReconciler/internal/config"
	"NewsReconciler/internal/domain"
	"NewsReconciler/internal/ports"
)

// Client implements ports.EntityStore against a Wikibase instance via the
// MediaWiki action API. The API applies merge-or-append semantics on edits;
// this client only supplies well-formed, deduplicated claims.
type Client struct {
	apiURL     string
	username   string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
	csrfToken  string
}

var _ ports.EntityStore = (*Client)(nil)

// NewClient builds a store client from configuration. Login must be called
// before Write.
func NewClient(cfg config.WikibaseConfig, logger *slog.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiURL:   cfg.APIURL,
		username: cfg.Username,
		password: cfg.Password,
		logger:   logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
}

// Login performs the bot login handshake and caches a CSRF token for edits.
func (c *Client) Login(ctx context.Context) error {
	loginToken, err := c.fetchToken(ctx, "login")
	if err != nil {
		return fmt.Errorf("fetch login token: %w", err)
	}

	form := url.Values{}
	form.Set("action", "login")
	form.Set("lgname", c.username)
	form.Set("lgpassword", c.password)
	form.Set("lgtoken", loginToken)
	form.Set("format", "json")

	var result struct {
		Login struct {
			Result string `json:"result"`
		} `json:"login"`
	}
	if err := c.post(ctx, form, &result); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if result.Login.Result != "Success" {
		return fmt.Errorf("login rejected: %s", result.Login.Result)
	}

	c.csrfToken, err = c.fetchToken(ctx, "csrf")
	if err != nil {
		return fmt.Errorf("fetch csrf token: %w", err)
	}
	c.logger.Info("logged in to entity store", "user", c.username)
	return nil
}

// Search runs a text search and returns candidate entity ids.
func (c *Client) Search(ctx context.Context, text string) ([]string, error) {
	query := url.Values{}
	query.Set("action", "wbsearchentities")
	query.Set("search", text)
	query.Set("language", "en")
	query.Set("type", "item")
	query.Set("format", "json")

	var result struct {
		Search []struct {
			ID string `json:"id"`
		} `json:"search"`
	}
	if err := c.get(ctx, query, &result); err != nil {
		return nil, fmt.Errorf("search entities: %w", err)
	}

	ids := make([]string, 0, len(result.Search))
	for _, hit := range result.Search {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Get fetches one entity's label and claims.
func (c *Client) Get(ctx context.Context, id string) (*domain.Entity, error) {
	query := url.Values{}
	query.Set("action", "wbgetentities")
	query.Set("ids", id)
	query.Set("props", "labels|claims|aliases")
	query.Set("format", "json")

	var result struct {
		Entities map[string]apiEntity `json:"entities"`
	}
	if err := c.get(ctx, query, &result); err != nil {
		return nil, fmt.Errorf("get entity %s: %w", id, err)
	}

	raw, ok := result.Entities[id]
	if !ok {
		return nil, fmt.Errorf("entity %s not found", id)
	}
	return raw.toDomain(id), nil
}

// Write creates or amends an entity and returns its id.
func (c *Client) Write(ctx context.Context, entity *domain.Entity) (string, error) {
	if c.csrfToken == "" {
		return "", fmt.Errorf("not logged in")
	}

	data, err := json.Marshal(buildEditPayload(entity))
	if err != nil {
		return "", fmt.Errorf("marshal entity: %w", err)
	}

	form := url.Values{}
	form.Set("action", "wbeditentity")
	form.Set("data", string(data))
	form.Set("token", c.csrfToken)
	form.Set("format", "json")
	if entity.ID != "" {
		form.Set("id", entity.ID)
	} else {
		form.Set("new", "item")
	}

	var result struct {
		Entity struct {
			ID string `json:"id"`
		} `json:"entity"`
	}
	if err := c.post(ctx, form, &result); err != nil {
		return "", fmt.Errorf("edit entity: %w", err)
	}
	if result.Entity.ID == "" {
		return "", fmt.Errorf("edit returned no entity id")
	}
	return result.Entity.ID, nil
}

func (c *Client) fetchToken(ctx context.Context, kind string) (string, error) {
	query := url.Values{}
	query.Set("action", "query")
	query.Set("meta", "tokens")
	query.Set("type", kind)
	query.Set("format", "json")

	var result struct {
		Query struct {
			Tokens map[string]string `json:"tokens"`
		} `json:"query"`
	}
	if err := c.get(ctx, query, &result); err != nil {
		return "", err
	}
	token := result.Query.Tokens[kind+"token"]
	if token == "" {
		return "", fmt.Errorf("no %s token in response", kind)
	}
	return token, nil
}

func (c *Client) get(ctx context.Context, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("User-Agent", "NewsReconciler/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("api returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	// The action API reports failures in the body under a 200 status.
	var envelope struct {
		Error *struct {
			Code string `json:"code"`
			Info string `json:"info"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("api error: %s (%s)", envelope.Error.Info, envelope.Error.Code)
	}
	return json.Unmarshal(body, out)
}
