package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSource supplies bearer tokens for authenticated requests. The client
// never issues or verifies tokens itself; it forwards whatever the source
// hands it.
type TokenSource interface {
	// AccessToken returns a token expected to still be valid.
	AccessToken(ctx context.Context) (string, error)
	// ForceRefresh discards the cached access token and obtains a fresh one.
	// Called after the backend rejects a request with 401.
	ForceRefresh(ctx context.Context) (string, error)
}

// Client is a thin typed wrapper over the backend's REST surface. Failed
// calls return an error for the caller to surface; there is no retry or
// backoff beyond a single token refresh on 401.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// SetTokenSource wires the auth manager in after construction; the manager
// itself needs the client for refresh calls.
func (c *Client) SetTokenSource(ts TokenSource) { c.tokens = ts }

func (c *Client) BaseURL() string { return c.base }

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, true)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, in, out, true)
}

func (c *Client) patch(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, in, out, true)
}

func (c *Client) put(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, in, out, true)
}

// postOpen is for the auth endpoints that run before a session exists.
func (c *Client) postOpen(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, in, out, false)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any, authed bool) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = b
	}

	token := ""
	if authed && c.tokens != nil {
		t, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return err
		}
		token = t
	}

	resp, err := c.send(ctx, method, path, query, body, token)
	if err != nil {
		return err
	}

	// One refresh-and-replay on 401, then give up. The body is a byte
	// slice so the replay can rebuild its reader.
	if resp.StatusCode == http.StatusUnauthorized && authed && c.tokens != nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		fresh, err := c.tokens.ForceRefresh(ctx)
		if err != nil {
			return fmt.Errorf("refresh session: %w", err)
		}
		resp, err = c.send(ctx, method, path, query, body, fresh)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body []byte, token string) (*http.Response, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rdr io.Reader = http.NoBody
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perform request: %w", err)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		switch {
		case envelope.Error.Message != "":
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		case envelope.Message != "":
			apiErr.Code = envelope.Code
			apiErr.Message = envelope.Message
		}
	}
	return apiErr
}
