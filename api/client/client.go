// Package client is an HTTP client for the ballot box API. Requests that act
// on behalf of a principal are signed with its ethereum keys.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/vocdoni/blindtest/api"
	"github.com/vocdoni/blindtest/log"
)

const (
	// HTTPGET is the method string used for calling Request()
	HTTPGET = http.MethodGet
	// HTTPPOST is the method string used for calling Request()
	HTTPPOST = http.MethodPost

	errCodeNot200 = "API error"

	// DefaultRetries is the number of attempts made when the server cannot
	// be reached.
	DefaultRetries = 3
	// DefaultTimeout is the default timeout for the HTTP client
	DefaultTimeout = 10 * time.Second
	// retryDelay is the pause between two attempts.
	retryDelay = 500 * time.Millisecond
	// maxLoggedBody truncates the bodies written to the debug log.
	maxLoggedBody = 512
)

// Error is a non 200 response of the API.
type Error struct {
	Status  int
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %d (%d: %s)", errCodeNot200, e.Status, e.Code, e.Message)
}

// ErrorCode returns the API error code carried by err, or 0 if err is not an
// API error.
func ErrorCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// HTTPclient is the ballot box API HTTP client.
type HTTPclient struct {
	c       *http.Client
	host    *url.URL
	retries int
}

// New returns a client for the API at host and checks it answers to ping.
func New(host string) (*HTTPclient, error) {
	hostURL, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	c := &HTTPclient{
		c: &http.Client{
			Transport: &http.Transport{IdleConnTimeout: DefaultTimeout},
			Timeout:   DefaultTimeout,
		},
		host:    hostURL,
		retries: DefaultRetries,
	}
	log.Debugw("http client created", "host", hostURL.String())
	if err := c.call(HTTPGET, nil, nil, nil, api.PingEndpoint); err != nil {
		return nil, err
	}
	return c, nil
}

// SetRetries configures the number of attempts per request.
func (c *HTTPclient) SetRetries(n int) {
	c.retries = max(n, 1)
}

// SetTimeout configures the timeout for the HTTP client.
func (c *HTTPclient) SetTimeout(d time.Duration) {
	c.c.Timeout = d
	if tr, ok := c.c.Transport.(*http.Transport); ok {
		tr.ResponseHeaderTimeout = d
	}
}

// Request performs a raw request to the endpoint joined from urlPath and
// returns the response body and status code. jsonBody, if not nil, is sent
// as JSON. params holds query parameters as key/value pairs; an odd trailing
// key is ignored.
func (c *HTTPclient) Request(method string, jsonBody any, params []string, urlPath ...string) ([]byte, int, error) {
	return c.RequestWithContext(context.Background(), method, jsonBody, params, urlPath...)
}

// RequestWithContext is Request bound to ctx. Connection failures are
// retried; any HTTP response, whatever its status, is returned as is.
func (c *HTTPclient) RequestWithContext(ctx context.Context, method string, jsonBody any, params []string, urlPath ...string) ([]byte, int, error) {
	var body []byte
	if jsonBody != nil {
		var err error
		if body, err = json.Marshal(jsonBody); err != nil {
			return nil, 0, fmt.Errorf("failed to marshal JSON: %w", err)
		}
	}

	u := *c.host
	u.Path = path.Join(u.Path, path.Join(urlPath...))
	if len(params) > 1 {
		values := url.Values{}
		for i := 0; i+1 < len(params); i += 2 {
			values.Set(params[i], params[i+1])
		}
		u.RawQuery = values.Encode()
	}

	logged := body
	if len(logged) > maxLoggedBody {
		logged = logged[:maxLoggedBody]
	}
	log.Debugw("http client request", "type", method, "url", u.String(), "body", string(logged))

	var lastErr error
	for attempt := 1; attempt <= max(c.retries, 1); attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create request: %w", err)
		}
		if jsonBody != nil {
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json")
		}
		resp, err := c.c.Do(req)
		if err != nil {
			lastErr = err
			log.Warnw("http request failed", "error", err.Error(), "attempt", attempt, "retries", c.retries)
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(retryDelay):
			}
			continue
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
		}
		return data, resp.StatusCode, nil
	}
	return nil, 0, fmt.Errorf("http request ultimately failed after retries: %w", lastErr)
}

// call performs a request and decodes a JSON response into out, which may be
// nil. Non 200 responses are returned as *Error.
func (c *HTTPclient) call(method string, body any, out any, params []string, urlPath ...string) error {
	data, status, err := c.Request(method, body, params, urlPath...)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		apiErr := &Error{Status: status}
		if err := json.Unmarshal(data, apiErr); err != nil {
			apiErr.Message = string(bytes.TrimSpace(data))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
