// Package arize provides a client for the Arize ingestion API, covering the
// write side of a migration: datasets, prompts, spans, evaluations and
// annotations. Creation endpoints are idempotent from the caller's point of
// view: a conflict surfaces as errors.ErrAlreadyExists so the importer can
// record the resource as already present instead of failing the run.
package arize

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/phxport/phxport/internal/config"
	"github.com/phxport/phxport/internal/errors"
	"github.com/phxport/phxport/internal/transport"
)

// Client talks to one Arize space.
type Client struct {
	baseURL string
	spaceID string
	http    *transport.Client
	logger  zerolog.Logger
}

// NewClient creates an Arize client from configuration. The API key is sent
// as a bearer token; the optional developer key is attached only when set,
// for the evaluation endpoints that require it.
func NewClient(cfg config.ArizeConfig, policy transport.Policy, logger zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.ErrAPIKeyRequired
	}
	if cfg.SpaceID == "" {
		return nil, errors.ErrSpaceIDRequired
	}

	httpClient := transport.New(cfg.Timeout, policy, logger)
	httpClient.SetHeader("Accept", "application/json")
	httpClient.SetHeader("Content-Type", "application/json")
	httpClient.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	if cfg.DeveloperKey != "" {
		httpClient.SetHeader("X-Developer-Key", cfg.DeveloperKey)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.Endpoint, "/"),
		spaceID: cfg.SpaceID,
		http:    httpClient,
		logger:  logger.With().Str("component", "arize").Logger(),
	}, nil
}

// SpaceID returns the space this client writes into.
func (c *Client) SpaceID() string {
	return c.spaceID
}

// post issues one POST with a JSON payload and decodes the response into
// out when out is non-nil.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "failed to encode request for %s", path)
	}

	resp, err := c.http.Do(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}

	if out != nil && len(resp) > 0 {
		if err := json.Unmarshal(resp, out); err != nil {
			return errors.Wrapf(err, "failed to decode response from %s", path)
		}
	}
	return nil
}

// spacePath prefixes a resource path with the space the client is bound to.
func (c *Client) spacePath(suffix string) string {
	return "/v1/spaces/" + c.spaceID + suffix
}
