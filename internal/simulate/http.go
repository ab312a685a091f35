package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/steadilab/steadi/internal/domain/model"
	"github.com/steadilab/steadi/internal/domain/types"
)

// HTTPClient wraps http.Client with a shared request timeout.
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// decodeInto drains the response and unmarshals it, returning an error
// for any non-2xx status.
func decodeInto(resp *http.Response, out interface{}) error {
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// createSession creates a new session for the given task.
func createSession(ctx context.Context, client *HTTPClient, baseURL string, task types.TaskKind) (string, error) {
	resp, err := client.Post(ctx, baseURL+"/sessions", map[string]string{"task": string(task)})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	var created sessionResponse
	if err := decodeInto(resp, &created); err != nil {
		return "", err
	}
	if created.SessionID == "" {
		return "", fmt.Errorf("service returned an empty session id")
	}
	return created.SessionID, nil
}

// sendCommand posts a lifecycle command to a session.
func sendCommand(ctx context.Context, client *HTTPClient, baseURL, sessionID, command string) error {
	resp, err := client.Post(ctx, baseURL+"/sessions/"+sessionID+"/command", commandRequest{Command: command})
	if err != nil {
		return fmt.Errorf("failed to send %q: %w", command, err)
	}
	return decodeInto(resp, nil)
}

// pushFrame posts one landmark frame to a session.
func pushFrame(ctx context.Context, client *HTTPClient, baseURL, sessionID string, frame model.Frame) error {
	resp, err := client.Post(ctx, baseURL+"/sessions/"+sessionID+"/frames", frame)
	if err != nil {
		return fmt.Errorf("failed to push frame: %w", err)
	}
	return decodeInto(resp, nil)
}

// getStatus fetches the live session status.
func getStatus(ctx context.Context, client *HTTPClient, baseURL, sessionID string) (statusResponse, error) {
	resp, err := client.Get(ctx, baseURL+"/sessions/"+sessionID)
	if err != nil {
		return statusResponse{}, fmt.Errorf("failed to get status: %w", err)
	}

	var status statusResponse
	if err := decodeInto(resp, &status); err != nil {
		return statusResponse{}, err
	}
	return status, nil
}

// getResult fetches the final result of a finished session.
func getResult(ctx context.Context, client *HTTPClient, baseURL, sessionID string) (resultResponse, error) {
	resp, err := client.Get(ctx, baseURL+"/sessions/"+sessionID+"/result")
	if err != nil {
		return resultResponse{}, fmt.Errorf("failed to get result: %w", err)
	}

	var result resultResponse
	if err := decodeInto(resp, &result); err != nil {
		return resultResponse{}, err
	}
	return result, nil
}

// getRecentResults fetches the most recent stored results.
func getRecentResults(ctx context.Context, client *HTTPClient, baseURL string, limit int) ([]resultResponse, error) {
	resp, err := client.Get(ctx, fmt.Sprintf("%s/results?limit=%d", baseURL, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get recent results: %w", err)
	}

	var results []resultResponse
	if err := decodeInto(resp, &results); err != nil {
		return nil, err
	}
	return results, nil
}
