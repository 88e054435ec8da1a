// Package client is the Go client for the planner REST API. It speaks the
// wire shapes and hands callers canonical domain records; the dashboard
// engine talks to the server exclusively through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tripsync/planner/internal/domain"
	"github.com/tripsync/planner/internal/wire"
)

// Options configures a Client. Exactly one of Token and User should be set:
// Token authenticates against a token-mode server, User impersonates an
// identity through the dev header on a dev-mode server.
type Options struct {
	Token string
	User  domain.UserID

	// HTTPClient overrides the default transport, mainly for tests.
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client calls one planner API deployment. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	user    domain.UserID
}

func New(baseURL string, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		token:   opts.Token,
		user:    opts.User,
	}
}

// CreateActivity is what a collaborator posts to add an activity to a trip.
// Empty strings and nil pointers are omitted from the request.
type CreateActivity struct {
	Name        string
	Description string
	Location    string
	Category    string

	Kind domain.ActivityKind

	StartTime     *time.Time
	EndTime       *time.Time
	TimeOptions   []time.Time
	RSVPCloseTime *time.Time

	MaxCapacity *int
	Visibility  string
	Shared      *bool

	InviteUserIDs []domain.UserID
}

func (c *Client) ListTrips(ctx context.Context) ([]domain.Trip, error) {
	var resp struct {
		Trips []wire.Trip `json:"trips"`
	}
	if err := c.do(ctx, http.MethodGet, "/trips", nil, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Trip, 0, len(resp.Trips))
	for _, t := range resp.Trips {
		out = append(out, t.Normalize())
	}
	return out, nil
}

func (c *Client) GetTrip(ctx context.Context, tripID domain.TripID) (domain.Trip, error) {
	var resp struct {
		Trip wire.Trip `json:"trip"`
	}
	if err := c.do(ctx, http.MethodGet, tripPath(tripID), nil, nil, &resp); err != nil {
		return domain.Trip{}, err
	}
	return resp.Trip.Normalize(), nil
}

// ListActivities fetches a trip's activities, optionally narrowed to one
// kind. The server orders them by start time; normalization keeps that
// order.
func (c *Client) ListActivities(ctx context.Context, tripID domain.TripID, kind *domain.ActivityKind) ([]domain.Activity, error) {
	path := tripPath(tripID) + "/activities"
	if kind != nil {
		path += "?kind=" + url.QueryEscape(string(*kind))
	}

	var resp struct {
		Activities []wire.Activity `json:"activities"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Activity, 0, len(resp.Activities))
	for _, a := range resp.Activities {
		out = append(out, a.Normalize())
	}
	return out, nil
}

func (c *Client) CreateActivity(ctx context.Context, tripID domain.TripID, in CreateActivity) (domain.Activity, error) {
	payload := struct {
		Name          string          `json:"name"`
		Description   *string         `json:"description,omitempty"`
		Location      *string         `json:"location,omitempty"`
		Category      *string         `json:"category,omitempty"`
		Kind          string          `json:"kind"`
		StartTime     *wire.FlexTime  `json:"startTime,omitempty"`
		EndTime       *wire.FlexTime  `json:"endTime,omitempty"`
		TimeOptions   []wire.FlexTime `json:"timeOptions,omitempty"`
		RSVPCloseTime *wire.FlexTime  `json:"rsvpCloseTime,omitempty"`
		MaxCapacity   *int            `json:"maxCapacity,omitempty"`
		Visibility    *string         `json:"visibility,omitempty"`
		Shared        *bool           `json:"shared,omitempty"`
		InviteUserIDs []int64         `json:"inviteUserIds,omitempty"`
	}{
		Name:          in.Name,
		Description:   optString(in.Description),
		Location:      optString(in.Location),
		Category:      optString(in.Category),
		Kind:          string(in.Kind),
		StartTime:     flexPtr(in.StartTime),
		EndTime:       flexPtr(in.EndTime),
		RSVPCloseTime: flexPtr(in.RSVPCloseTime),
		MaxCapacity:   in.MaxCapacity,
		Visibility:    optString(in.Visibility),
		Shared:        in.Shared,
	}
	for _, opt := range in.TimeOptions {
		payload.TimeOptions = append(payload.TimeOptions, wire.NewFlexTime(opt))
	}
	for _, id := range in.InviteUserIDs {
		payload.InviteUserIDs = append(payload.InviteUserIDs, int64(id))
	}

	var resp struct {
		Activity wire.Activity `json:"activity"`
	}
	if err := c.do(ctx, http.MethodPost, tripPath(tripID)+"/activities", payload, nil, &resp); err != nil {
		return domain.Activity{}, err
	}
	return resp.Activity.Normalize(), nil
}

func (c *Client) CancelActivity(ctx context.Context, tripID domain.TripID, activityID domain.ActivityID) error {
	return c.do(ctx, http.MethodDelete, activityPath(tripID, activityID), nil, nil, nil)
}

// SetRSVP submits an RSVP action and returns the server's authoritative
// record, which may differ from any local prediction (waitlist promotion is
// server-computed). A non-empty idempotencyKey makes retries of the same
// action replay instead of reapply.
func (c *Client) SetRSVP(ctx context.Context, tripID domain.TripID, activityID domain.ActivityID, action domain.RSVPAction, idempotencyKey string) (domain.Activity, error) {
	payload := struct {
		Action string `json:"action"`
	}{Action: string(action)}

	var header http.Header
	if idempotencyKey != "" {
		header = http.Header{"Idempotency-Key": []string{idempotencyKey}}
	}

	var resp struct {
		Activity wire.Activity `json:"activity"`
	}
	if err := c.do(ctx, http.MethodPut, activityPath(tripID, activityID)+"/rsvp", payload, header, &resp); err != nil {
		return domain.Activity{}, err
	}
	return resp.Activity.Normalize(), nil
}

// Healthy pings the unauthenticated liveness endpoint.
func (c *Client) Healthy(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}

// do runs one request. Non-2xx answers come back as *APIError; transport
// failures keep their original error type for retry classification.
func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.user != 0 {
		req.Header.Set("X-Planner-User", strconv.FormatInt(int64(c.user), 10))
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}
	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func tripPath(tripID domain.TripID) string {
	return "/trips/" + strconv.FormatInt(int64(tripID), 10)
}

func activityPath(tripID domain.TripID, activityID domain.ActivityID) string {
	return tripPath(tripID) + "/activities/" + strconv.FormatInt(int64(activityID), 10)
}

func optString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func flexPtr(t *time.Time) *wire.FlexTime {
	if t == nil {
		return nil
	}
	f := wire.NewFlexTime(*t)
	return &f
}
