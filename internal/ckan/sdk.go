// Package ckan is a thin client for the CKAN action API.
//
// It covers the package, resource and datastore actions that ckanny needs,
// plus streaming downloads from the filestore. All calls go through the
// standard action envelope and surface typed errors.
package ckan

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/imroc/req/v3"
)

const (
	actionBasePath = "/api/3/action/"

	// HeaderAPIKey carries the CKAN API token.
	HeaderAPIKey = "X-CKAN-API-Key"

	resourceCacheSize = 128
	resourceCacheTTL  = 5 * time.Minute
)

// Client talks to a single CKAN instance.
type Client struct {
	http     *req.Client
	baseURL  string
	resCache *expirable.LRU[string, *Resource]
}

// New creates a Client for the given config.
func New(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := req.C().
		SetBaseURL(cfg.Remote).
		SetCommonRetryCount(3).
		SetCommonRetryBackoffInterval(1*time.Second, 5*time.Second).
		SetUserAgent(cfg.UserAgent).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	if cfg.APIKey != "" {
		client.SetCommonHeader(HeaderAPIKey, cfg.APIKey)
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Client{
		http:     client,
		baseURL:  cfg.Remote,
		resCache: expirable.NewLRU[string, *Resource](resourceCacheSize, nil, resourceCacheTTL),
	}, nil
}

// BaseURL returns the configured CKAN address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// action posts a single CKAN action and decodes the envelope into result.
// result may be nil when the caller only cares about success.
func (c *Client) action(ctx context.Context, name string, payload any, result any) error {
	env := actionEnvelope{Result: result}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetSuccessResult(&env).
		SetErrorResult(&env).
		Post(actionBasePath + name)

	return handleActionError(resp, &env, err, name)
}

// handleActionError maps transport and envelope failures to typed errors.
func handleActionError(resp *req.Response, env *actionEnvelope, requestErr error, action string) error {
	if requestErr != nil {
		return fmt.Errorf("ckan: %s: %w", action, requestErr)
	}

	// got a response, but the action failed
	if resp.IsErrorState() || !env.Success {
		if env.Error != nil {
			return fmt.Errorf("ckan: %s: %w", action, env.Error)
		}
		return fmt.Errorf("ckan: %s: http %d: %s", action, resp.GetStatusCode(), resp.String())
	}

	return nil
}
