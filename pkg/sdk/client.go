package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethanbaker/api/pkg/api_types"
)

// Client wraps calls to the interview copilot backend
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Create a new session
func (c *Client) CreateSession(ctx context.Context, req *CreateSessionRequest) (*Session, error) {
	path := "/api/copilot/sessions"

	var out ApiResponse[Session]
	if err := c.doJSON(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}

	if out.Data.ID == "" {
		return nil, fmt.Errorf("no id returned")
	}

	return &out.Data, nil
}

// Get a session snapshot by UUID
func (c *Client) GetSession(ctx context.Context, uuid string) (*Session, error) {
	path := fmt.Sprintf("/api/copilot/sessions/%s", uuid)

	var out ApiResponse[Session]
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	// Check for success
	switch out.Status {
	case api_types.StatusFail:
		return nil, fmt.Errorf("failed to get session: %s", out.Message)
	case api_types.StatusError:
		return nil, fmt.Errorf("error getting session (%s): %v", out.Message, out.Error)
	}

	// On success return data
	return &out.Data, nil
}

// Send a caption fragment to a session provided by UUID
func (c *Client) SendCaption(ctx context.Context, uuid string, req *PostCaptionRequest) (*PostCaptionResponse, error) {
	path := fmt.Sprintf("/api/copilot/sessions/%s/captions", uuid)

	var out ApiResponse[PostCaptionResponse]
	if err := c.doJSON(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// List answers generated for a session
func (c *Client) GetAnswers(ctx context.Context, uuid string) ([]*Answer, error) {
	path := fmt.Sprintf("/api/copilot/sessions/%s/answers", uuid)

	var out ApiResponse[[]*Answer]
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return out.Data, nil
}

// Get the scored memory log of a session (debugging endpoint)
func (c *Client) GetMemory(ctx context.Context, uuid string) ([]*MemoryEntry, error) {
	path := fmt.Sprintf("/api/copilot/sessions/%s/memory", uuid)

	var out ApiResponse[[]*MemoryEntry]
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return out.Data, nil
}

// Attach resume text to a session
func (c *Client) SetResume(ctx context.Context, uuid string, text string) error {
	path := fmt.Sprintf("/api/copilot/sessions/%s/resume", uuid)

	return c.doJSON(ctx, http.MethodPut, path, &PutResumeRequest{Text: text}, nil)
}

// End an existing session by UUID
func (c *Client) EndSession(ctx context.Context, uuid string) error {
	path := fmt.Sprintf("/api/copilot/sessions/%s", uuid)

	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// doJSON is a helper to perform JSON requests to the backend
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	// Create request body if input is provided
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(b)
	}

	// Create the request
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	// Perform the request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// On error, read body and return error
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("[BACKEND]: backend '%s %s' failed: %d: %s", method, path, resp.StatusCode, string(b))
	}

	// If no output expected, return early
	if out == nil {
		return nil
	}

	// Decode the response body into the output struct
	dec := json.NewDecoder(resp.Body)
	return dec.Decode(out)
}
