// Package api provides the REST client for the scoutpool carpool service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/scoutpool/scoutpool/internal/metrics"
)

// Client is a scoutpool API client. Credentials are carried in the cookie
// jar after a successful Login (or LoadSession).
type Client struct {
	BaseURL    string
	ConfigDir  string
	HTTPClient *http.Client

	log zerolog.Logger
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL, configDir string, logger zerolog.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL:   baseURL,
		ConfigDir: configDir,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		log: logger.With().Str("component", "api").Logger(),
	}
}

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsUnauthenticated reports whether err is a 401 from the backend.
func IsUnauthenticated(err error) bool {
	apiErr, ok := err.(*Error)
	return ok && apiErr.Status == http.StatusUnauthorized
}

// doRequest performs an HTTP request against the backend and returns the
// response body. Non-2xx responses become an *Error carrying the backend's
// error message.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(method, "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	metrics.APIRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &errResp)
		c.log.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("request failed")
		return nil, &Error{Status: resp.StatusCode, Message: errResp.Error}
	}

	return respBody, nil
}

// get performs a GET request and unmarshals the response into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	respBody, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(respBody, out)
}

// post performs a POST request with a JSON body; out may be nil.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return err
		}
	}
	respBody, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

// delete performs a DELETE request with an optional JSON body.
func (c *Client) delete(ctx context.Context, path string, in any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return err
		}
	}
	_, err := c.doRequest(ctx, http.MethodDelete, path, body)
	return err
}
