// Package groupme implements the subset of the GroupMe v3 API the
// exporter needs: session bootstrap, chat listing and detail lookup,
// and time-ordered message retrieval.
package groupme

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.groupme.com/v3"

// pageSize matches the page size the API documents for listing
// endpoints.
const pageSize = 10

// messagePageSize is the maximum the messages endpoints accept.
const messagePageSize = 100

// Client is an authenticated GroupMe API session.
type Client struct {
	// Name is the authenticated user's display name.
	Name string

	baseURL string
	tokens  TokenSource
	http    *http.Client
	limiter *rate.Limiter
}

type Options struct {
	// BaseURL overrides the API endpoint (tests).
	BaseURL string
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
	// RequestsPerSecond caps outgoing API calls. Zero means the
	// default of 5 rps with a small burst.
	RequestsPerSecond int
}

// New validates the token against /users/me and returns a session.
// A rejected token yields ErrAuth.
func New(ctx context.Context, tokens TokenSource, opts Options) (*Client, error) {
	base := strings.TrimSuffix(opts.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	c := &Client{
		baseURL: base,
		tokens:  tokens,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(rps), 2*rps),
	}

	var me struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phone_number"`
	}
	if err := c.get(ctx, "/users/me", nil, "login", &me); err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.Status != 0 {
			return nil, ErrAuth
		}
		return nil, err
	}
	c.Name = me.Name
	return c, nil
}

// get performs one API call and decodes the "response" envelope into
// out. Every call waits on the rate limiter first.
func (c *Client) get(ctx context.Context, path string, params url.Values, op string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	apiRequests.Add(1)

	u := c.baseURL + path + "?token=" + url.QueryEscape(c.tokens.Token())
	if len(params) > 0 {
		u += "&" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("groupme: %s: build request: %w", op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("groupme: %s: %w", op, err)
	}
	defer resp.Body.Close()

	// The messages endpoints answer 304 when history is exhausted.
	if resp.StatusCode == http.StatusNotModified {
		return errEndOfHistory
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &APIError{Op: op, Status: resp.StatusCode}
	}

	var envelope struct {
		Response json.RawMessage `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("groupme: %s: decode response: %w", op, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Response, out); err != nil {
		return fmt.Errorf("groupme: %s: decode payload: %w", op, err)
	}
	return nil
}
