// Package client talks to the admin HTTP API. A *Client satisfies both
// session.Gateway and session.ProfileSource, so an edit session can run
// against a remote server exactly as it does against a local store.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/solatis/parkwatch/internal/condition"
	"github.com/solatis/parkwatch/internal/core/httpapi"
	"github.com/solatis/parkwatch/internal/types"
)

// Options tunes the client. Zero values take defaults.
type Options struct {
	Timeout    time.Duration
	RetryCount int
	Logger     *zap.Logger
}

// Client is a remote persistence gateway.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts Options) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RetryCount < 0 {
		opts.RetryCount = 0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	h := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: h, logger: opts.Logger}, nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetError(&httpapi.APIError{})
}

// check turns a transport failure or non-2xx response into an error.
// Server-side failures come back as *httpapi.APIError with Status set.
func (c *Client) check(resp *resty.Response, err error, op string) error {
	if err != nil {
		c.logger.Warn("admin api call failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if resp.IsSuccess() {
		return nil
	}

	apiErr, ok := resp.Error().(*httpapi.APIError)
	if !ok || apiErr.Code == "" {
		apiErr = &httpapi.APIError{Code: httpapi.CodeHTTP, Message: resp.Status()}
	}
	apiErr.Status = resp.StatusCode()
	c.logger.Debug("admin api returned error",
		zap.String("op", op),
		zap.Int("status", apiErr.Status),
		zap.String("code", apiErr.Code),
	)
	return fmt.Errorf("failed to %s: %w", op, apiErr)
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) (httpapi.Health, error) {
	var out httpapi.Health
	resp, err := c.request(ctx).SetResult(&out).Get("/health")
	return out, c.check(resp, err, "check health")
}

// FetchConditions returns the persisted set of objectID.
func (c *Client) FetchConditions(ctx context.Context, objectID types.ObjectID) ([]types.EventCondition, error) {
	var out httpapi.ConditionSet
	resp, err := c.request(ctx).
		SetQueryParam("objectId", objectID).
		SetResult(&out).
		Get("/api/event-conditions")
	if err := c.check(resp, err, "fetch conditions"); err != nil {
		return nil, err
	}
	return nonNil(out.Conditions), nil
}

// ReplaceAllConditions swaps the persisted set of objectID for list.
// A server-side validation failure returns an *httpapi.APIError with code
// VALIDATION_ERROR and the set result in Details.
func (c *Client) ReplaceAllConditions(ctx context.Context, objectID types.ObjectID, list []types.EventCondition) ([]types.EventCondition, error) {
	var out httpapi.ConditionSet
	resp, err := c.request(ctx).
		SetBody(httpapi.ConditionSet{ObjectID: objectID, Conditions: nonNil(list)}).
		SetResult(&out).
		Put("/api/event-conditions")
	if err := c.check(resp, err, "replace conditions"); err != nil {
		return nil, err
	}
	return nonNil(out.Conditions), nil
}

// DeleteCondition removes one persisted record. An empty objectID deletes by
// id alone. Returns an error wrapping types.ErrConditionNotFound on 404.
func (c *Client) DeleteCondition(ctx context.Context, id types.ConditionID, objectID types.ObjectID) error {
	req := c.request(ctx).SetPathParam("id", string(id))
	if objectID != "" {
		req.SetQueryParam("objectId", objectID)
	}
	resp, err := req.Delete("/api/event-conditions/{id}")
	if err == nil && resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%w: %s", types.ErrConditionNotFound, id)
	}
	return c.check(resp, err, "delete condition")
}

// Validate runs server-side set validation without saving.
func (c *Client) Validate(ctx context.Context, objectID types.ObjectID, list []types.EventCondition) (condition.SetResult, error) {
	var out condition.SetResult
	resp, err := c.request(ctx).
		SetBody(httpapi.ConditionSet{ObjectID: objectID, Conditions: nonNil(list)}).
		SetResult(&out).
		Post("/api/event-conditions/validate")
	return out, c.check(resp, err, "validate conditions")
}

// ListProfiles returns the field catalog of objectID.
func (c *Client) ListProfiles(ctx context.Context, objectID types.ObjectID) ([]types.DeviceProfile, error) {
	var out httpapi.ProfileSet
	resp, err := c.request(ctx).
		SetPathParam("objectId", objectID).
		SetResult(&out).
		Get("/api/device-types/{objectId}/profiles")
	if err := c.check(resp, err, "list profiles"); err != nil {
		return nil, err
	}
	if out.Profiles == nil {
		return []types.DeviceProfile{}, nil
	}
	return out.Profiles, nil
}

// ReplaceProfiles swaps the field catalog of objectID.
func (c *Client) ReplaceProfiles(ctx context.Context, objectID types.ObjectID, profiles []types.DeviceProfile) error {
	resp, err := c.request(ctx).
		SetPathParam("objectId", objectID).
		SetBody(httpapi.ProfileSet{ObjectID: objectID, Profiles: profiles}).
		Put("/api/device-types/{objectId}/profiles")
	return c.check(resp, err, "replace profiles")
}

func nonNil(list []types.EventCondition) []types.EventCondition {
	if list == nil {
		return []types.EventCondition{}
	}
	return list
}
