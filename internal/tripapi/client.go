// Package tripapi is the HTTP client for the trips REST backend.
//
// Every method maps to exactly one request against a fixed resource path,
// attaches the caller's bearer token and returns either the decoded response
// body or an *Error. Callers never see raw transport errors.
package tripapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tripplanner/internal/core"
)

// DefaultBaseURL is the trips resource root used when none is configured.
const DefaultBaseURL = "http://localhost:8000/api/trips"

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// Client calls the trips REST API. The bearer token is passed per call, so
// one Client serves every user and is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for per-call debug logs.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client rooted at baseURL (e.g. http://host/api/trips).
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    NewHTTPClient(30 * time.Second),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "tripapi")
	return c
}

// BaseURL returns the resource root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// NewHTTPClient creates an HTTP client with connection pooling and
// keep-alive tuned for talking to a single backend host.
func NewHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Body is a response body returned as received.
type Body json.RawMessage

// Decode unmarshals the body into v.
func (b Body) Decode(v any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}

// Detail returns the "detail" field of an object body, if any.
func (b Body) Detail() string {
	var obj struct {
		Detail string `json:"detail"`
	}
	if err := b.Decode(&obj); err != nil {
		return ""
	}
	return obj.Detail
}

func tripPath(tripID int64) string {
	return "/" + strconv.FormatInt(tripID, 10) + "/"
}

func activityPath(tripID, activityID int64) string {
	return tripPath(tripID) + "activities/" + strconv.FormatInt(activityID, 10) + "/"
}

// CreateTrip: POST /trips/
func (c *Client) CreateTrip(ctx context.Context, in core.TripInput, token string) (core.Trip, error) {
	var trip core.Trip
	err := c.do(ctx, http.MethodPost, "/", token, in, &trip)
	return trip, err
}

// GetTrips: GET /trips/
func (c *Client) GetTrips(ctx context.Context, token string) ([]core.Trip, error) {
	var trips []core.Trip
	err := c.do(ctx, http.MethodGet, "/", token, nil, &trips)
	return trips, err
}

// GetTrip: GET /trips/{id}/
func (c *Client) GetTrip(ctx context.Context, tripID int64, token string) (core.Trip, error) {
	var trip core.Trip
	err := c.do(ctx, http.MethodGet, tripPath(tripID), token, nil, &trip)
	return trip, err
}

// UpdateTrip: PATCH /trips/{id}/
func (c *Client) UpdateTrip(ctx context.Context, tripID int64, in core.TripInput, token string) (core.Trip, error) {
	var trip core.Trip
	err := c.do(ctx, http.MethodPatch, tripPath(tripID), token, in, &trip)
	return trip, err
}

// DeleteTrip: DELETE /trips/{id}/
func (c *Client) DeleteTrip(ctx context.Context, tripID int64, token string) error {
	return c.do(ctx, http.MethodDelete, tripPath(tripID), token, nil, nil)
}

// InviteUser: POST /trips/{id}/invite/ with {"email": ...}
func (c *Client) InviteUser(ctx context.Context, tripID int64, email, token string) (Body, error) {
	var body Body
	err := c.do(ctx, http.MethodPost, tripPath(tripID)+"invite/", token, core.InviteInput{Email: email}, &body)
	return body, err
}

// JoinTrip: POST /trips/join/ with {"trip_code": ...}
func (c *Client) JoinTrip(ctx context.Context, tripCode, token string) (Body, error) {
	var body Body
	err := c.do(ctx, http.MethodPost, "/join/", token, core.JoinInput{TripCode: tripCode}, &body)
	return body, err
}

// CreateActivity: POST /trips/{id}/activities/
func (c *Client) CreateActivity(ctx context.Context, tripID int64, in core.ActivityInput, token string) (core.Activity, error) {
	var act core.Activity
	err := c.do(ctx, http.MethodPost, tripPath(tripID)+"activities/", token, in, &act)
	return act, err
}

// GetActivities: GET /trips/{id}/activities/
func (c *Client) GetActivities(ctx context.Context, tripID int64, token string) ([]core.Activity, error) {
	var acts []core.Activity
	err := c.do(ctx, http.MethodGet, tripPath(tripID)+"activities/", token, nil, &acts)
	return acts, err
}

// UpdateActivity: PATCH /trips/{id}/activities/{activityId}/
func (c *Client) UpdateActivity(ctx context.Context, tripID, activityID int64, in core.ActivityInput, token string) (core.Activity, error) {
	var act core.Activity
	err := c.do(ctx, http.MethodPatch, activityPath(tripID, activityID), token, in, &act)
	return act, err
}

// DeleteActivity: DELETE /trips/{id}/activities/{activityId}/
func (c *Client) DeleteActivity(ctx context.Context, tripID, activityID int64, token string) error {
	return c.do(ctx, http.MethodDelete, activityPath(tripID, activityID), token, nil, nil)
}

// VoteActivity: POST /trips/{id}/activities/{activityId}/vote/ with {"vote": ...}.
// The tally is computed by the backend; callers re-fetch to see it.
func (c *Client) VoteActivity(ctx context.Context, tripID, activityID int64, vote bool, token string) (Body, error) {
	var body Body
	err := c.do(ctx, http.MethodPost, activityPath(tripID, activityID)+"vote/", token, core.VoteInput{Vote: vote}, &body)
	return body, err
}

// do performs one request and normalises every failure into *Error.
func (c *Client) do(ctx context.Context, method, path, token string, payload, out any) error {
	start := time.Now()

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return requestError(fmt.Errorf("encode %s %s: %w", method, path, err))
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return requestError(fmt.Errorf("build %s %s: %w", method, path, err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Trips API request failed",
			"method", method, "path", path, "error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return networkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return networkError(fmt.Errorf("read %s %s: %w", method, path, err))
	}

	c.logger.DebugContext(ctx, "Trips API call",
		"method", method,
		"path", path,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode == http.StatusUnauthorized {
		return sessionExpired()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ServerError(resp.StatusCode, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if raw, ok := out.(*Body); ok {
		*raw = Body(body)
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{
			Kind:   KindServer,
			Status: resp.StatusCode,
			Detail: "Unexpected response from server.",
			Body:   body,
			cause:  fmt.Errorf("decode %s %s: %w", method, path, err),
		}
	}
	return nil
}
