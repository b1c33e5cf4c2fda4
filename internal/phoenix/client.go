// Package phoenix provides a client for the Phoenix v1 REST API, covering
// the read side of a migration: datasets, prompts, projects, spans,
// annotations and evaluations. All listings are cursor-paginated and fully
// drained before returning.
package phoenix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/phxport/phxport/internal/config"
	"github.com/phxport/phxport/internal/errors"
	"github.com/phxport/phxport/internal/transport"
)

// Client talks to one Phoenix server.
type Client struct {
	baseURL  string
	pageSize int
	http     *transport.Client
	logger   zerolog.Logger
}

// NewClient creates a Phoenix client from configuration. The API key, when
// set, is sent in the api_key header the way Phoenix Cloud expects.
func NewClient(cfg config.PhoenixConfig, policy transport.Policy, logger zerolog.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.ErrEndpointRequired
	}

	httpClient := transport.New(cfg.Timeout, policy, logger)
	httpClient.SetHeader("Accept", "application/json")
	httpClient.SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetHeader("api_key", cfg.APIKey)
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.Endpoint, "/"),
		pageSize: cfg.PageSize,
		http:     httpClient,
		logger:   logger.With().Str("component", "phoenix").Logger(),
	}, nil
}

// BaseURL returns the configured server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// get issues one GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	body, err := c.http.Do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "failed to decode response from %s", path)
	}
	return nil
}

// drain collects every page of a cursor-paginated listing.
func drain[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var all []T
	cursor := ""

	for {
		q := url.Values{}
		for k, vs := range query {
			q[k] = vs
		}
		q.Set("limit", strconv.Itoa(c.pageSize))
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var p page[T]
		if err := c.get(ctx, path, q, &p); err != nil {
			return nil, err
		}
		all = append(all, p.Data...)

		if p.NextCursor == "" {
			return all, nil
		}
		cursor = p.NextCursor
	}
}
