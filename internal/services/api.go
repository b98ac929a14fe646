// Low-level REST transport for the hosted backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/readlog/internal/shared"
)

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// APIError is the error body returned by the REST and auth endpoints.
//
// The REST API reports message/details/hint/code; the auth API reports error/error_description or msg.
type APIError struct {
	StatusCode       int    `json:"-"`
	Message          string `json:"message"`
	Details          string `json:"details"`
	Hint             string `json:"hint"`
	Code             string `json:"code"`
	Msg              string `json:"msg"`
	ErrorCode        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *APIError) Error() string {
	msg := e.Message
	for _, alt := range []string{e.Msg, e.ErrorDescription, e.ErrorCode} {
		if msg == "" {
			msg = alt
		}
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "backend error (status %d): %s", e.StatusCode, msg)
	if e.Details != "" {
		fmt.Fprintf(&b, " (%s)", e.Details)
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, " hint: %s", e.Hint)
	}
	return b.String()
}

func (e *APIError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		errs = append(errs, shared.ErrNotAuthenticated)
	case e.StatusCode >= 500:
		errs = append(errs, shared.ErrServiceUnavailable)
	}
	return errs
}

// apiRequest describes one call to the backend.
type apiRequest struct {
	method string
	path   string
	query  url.Values
	header http.Header
	body   any
	// user attaches the signed-in reader's bearer token instead of the anonymous key
	user bool
	// accept lists non-2xx statuses returned to the caller instead of an [*APIError]
	accept []int
}

// send performs a rate-limited request against the backend and returns the raw response.
func (c *RemoteClient) send(ctx context.Context, r apiRequest) (*APIResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	fullURL := c.baseURL + r.path
	if len(r.query) > 0 {
		fullURL += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range r.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("apikey", c.anonKey)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	bearer := c.anonKey
	if r.user {
		token, err := c.accessToken()
		if err != nil {
			return nil, err
		}
		bearer = token
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("backend request", "method", r.method, "path", r.path, "status", resp.StatusCode, "duration", time.Since(start))

	apiResp := &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: data}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return apiResp, nil
	}
	for _, status := range r.accept {
		if resp.StatusCode == status {
			return apiResp, nil
		}
	}
	return nil, decodeAPIError(resp.StatusCode, data)
}

// sendJSON performs a request and decodes a successful JSON body into result.
func (c *RemoteClient) sendJSON(ctx context.Context, r apiRequest, result any) (*APIResponse, error) {
	resp, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	if result != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return nil, fmt.Errorf("%w: failed to decode response: %w", shared.ErrMalformedResponse, err)
		}
	}
	return resp, nil
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil {
		apiErr = &APIError{Message: strings.TrimSpace(string(body))}
	}
	apiErr.StatusCode = status
	return apiErr
}

// parseContentRange extracts the total from a Content-Range header such as "0-14/23" or "*/0".
func parseContentRange(header string) (int, error) {
	header = strings.TrimSpace(header)
	if unit, rest, ok := strings.Cut(header, " "); ok && unit == "items" {
		header = rest
	}

	_, totalPart, ok := strings.Cut(header, "/")
	if !ok {
		return 0, fmt.Errorf("%w: content range %q has no total", shared.ErrMalformedResponse, header)
	}
	if totalPart == "*" {
		return 0, fmt.Errorf("%w: content range %q has an unknown total", shared.ErrMalformedResponse, header)
	}

	total, err := strconv.Atoi(totalPart)
	if err != nil || total < 0 {
		return 0, fmt.Errorf("%w: content range %q has an invalid total", shared.ErrMalformedResponse, header)
	}
	return total, nil
}

// isStatus reports whether err is an [*APIError] with the given status code.
func isStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
