package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient is a small retrying JSON client shared by all fetchers.
type HTTPClient struct {
	client    *http.Client
	retries   int
	backoff   time.Duration
	userAgent string
}

func NewHTTPClient(timeout time.Duration, retries int, backoff time.Duration, userAgent string) *HTTPClient {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	if backoff == 0 {
		backoff = 300 * time.Millisecond
	}
	return &HTTPClient{
		client:    &http.Client{Timeout: timeout},
		retries:   retries,
		backoff:   backoff,
		userAgent: userAgent,
	}
}

// DoJSON performs a request with an optional JSON body and decodes a JSON
// response into out. Non-2xx statuses become errors carrying the status
// line plus a bounded slice of the body.
func (c *HTTPClient) DoJSON(ctx context.Context, method, rawURL string, headers map[string]string, body any, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	var lastErr error
	tries := c.retries + 1
	for attempt := 0; attempt < tries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
		if err != nil {
			return err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		if payload != nil && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
		} else {
			err = decodeOrError(resp, out)
			if err == nil {
				return nil
			}
			lastErr = err
		}

		if attempt < tries-1 {
			select {
			case <-time.After(c.backoff * time.Duration(1<<attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

// DoForm posts url-encoded form values with basic auth, decoding a JSON
// response. Used by the Reddit token exchange.
func (c *HTTPClient) DoForm(ctx context.Context, rawURL string, form url.Values, user, pass string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "POST", rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(user, pass)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	return decodeOrError(resp, out)
}

func decodeOrError(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return errors.New(resp.Status + ": " + string(b))
}
