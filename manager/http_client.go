package manager

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/khulnasoft/DataLineup/cursor"
	"github.com/khulnasoft/DataLineup/errors"
	"github.com/khulnasoft/DataLineup/internal/httpclient"
)

// HTTPClient talks to a real manager over the endpoints in §6, using
// the SSRF-hardened client the rest of the module already carries.
type HTTPClient struct {
	baseURL string
	client  *httpclient.SaferClient
}

// NewHTTPClient returns a Client against baseURL (e.g.
// "https://manager.internal"), with a bounded per-call timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{baseURL: baseURL, client: httpclient.NewSaferClient(timeout)}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.WithKind(errors.Wrapf(err, "%s %s", method, path), errors.KindTransientIO)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(resp.Body)
		return errors.WithKind(errors.Newf("%s %s: status %d: %s", method, path, resp.StatusCode, payload), errors.KindTransientIO)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response body")
	}
	return nil
}

func (c *HTTPClient) Lock(ctx context.Context, workerID string) (*LockResponse, error) {
	var out LockResponse
	if err := c.do(ctx, http.MethodPost, "/api/lock", map[string]string{"worker_id": workerID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SyncJobs(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/jobs/sync", nil, nil)
}

func (c *HTTPClient) FetchCursorStates(ctx context.Context, jobNames []string) (map[string]cursor.State, error) {
	var out struct {
		Cursors map[string]cursor.State `json:"cursors"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/jobs/cursors/states/fetch", map[string]any{"cursors": jobNames}, &out); err != nil {
		return nil, err
	}
	return out.Cursors, nil
}

func (c *HTTPClient) PushJobStates(ctx context.Context, states map[string]cursor.State) error {
	return c.do(ctx, http.MethodPut, "/api/jobs/states", map[string]any{"state": states}, nil)
}

func (c *HTTPClient) ListTopics(ctx context.Context) ([]ComponentDefinition, error) {
	return c.listComponents(ctx, "/api/topics")
}

func (c *HTTPClient) ListInventories(ctx context.Context) ([]ComponentDefinition, error) {
	return c.listComponents(ctx, "/api/inventories")
}

func (c *HTTPClient) ListJobDefinitions(ctx context.Context) ([]ComponentDefinition, error) {
	return c.listComponents(ctx, "/api/job_definitions")
}

func (c *HTTPClient) listComponents(ctx context.Context, path string) ([]ComponentDefinition, error) {
	var out struct {
		Items []ComponentDefinition `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *HTTPClient) PatchTopology(ctx context.Context, patch []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/topologies/patch", bytes.NewReader(patch))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/x-yaml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.WithKind(errors.Wrap(err, "PUT /api/topologies/patch"), errors.KindTransientIO)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}
	if resp.StatusCode >= 400 {
		return nil, errors.WithKind(errors.Newf("PUT /api/topologies/patch: status %d: %s", resp.StatusCode, out), errors.KindTransientIO)
	}
	return out, nil
}
