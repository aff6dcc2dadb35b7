package api

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

	"github.com/google/uuid"
	"github.com/juju/loggo/v2"

	"github.com/webtray/webtray/internal/types"
)

var logger = loggo.GetLogger("webtray.api")

// PathPrefix is the versioned prefix of every resource endpoint.
const PathPrefix = "/api/v1"

// Client talks JSON to the WebTray REST backend.
type Client struct {
	baseURL string
	tokens  types.TokenSource
	client  *http.Client
}

func New(baseURL string, timeout time.Duration, tokens types.TokenSource) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// StoreQuery scopes a request to a store.
func StoreQuery(storeID int64) url.Values {
	return url.Values{"storeId": []string{strconv.FormatInt(storeID, 10)}}
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.do(ctx, http.MethodPost, path, query, body, out)
}

func (c *Client) Put(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.do(ctx, http.MethodPut, path, query, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, query url.Values) error {
	return c.do(ctx, http.MethodDelete, path, query, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + PathPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	logger.Debugf("%s %s (request %s)", method, path, requestID)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	apiErr := &Error{Status: resp.StatusCode, Method: method, Path: path}
	if len(bytes.TrimSpace(data)) == 0 {
		// A bodiless 2xx is success only when nothing was expected back.
		switch {
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return apiErr
		case out == nil:
			return nil
		default:
			return fmt.Errorf("failed to decode response: empty body")
		}
	}
	env, decodeErr := decodeEnvelope(data, out)
	if decodeErr != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			// Proxies and crashed backends answer without an envelope.
			return apiErr
		}
		return decodeErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.ResponseSuccessful {
		apiErr.Message = env.ResponseMessage
		logger.Debugf("%s %s failed with %d: %s", method, path, resp.StatusCode, env.ResponseMessage)
		return apiErr
	}
	return nil
}
