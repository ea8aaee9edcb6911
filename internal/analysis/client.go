// Package analysis implements the submission contract with the remote modal
// analysis service.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotor-modal/client/internal/models"
)

// DefaultPath is the backend route that accepts submissions.
const DefaultPath = "/predict"

// Client posts submissions to the analysis backend.
type Client struct {
	Endpoint string
	HTTP     *http.Client
}

// NewClient creates a client for the given backend base URL and route.
func NewClient(baseURL, path string, timeout time.Duration) *Client {
	if path == "" {
		path = DefaultPath
	}
	endpoint := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	return &Client{
		Endpoint: endpoint,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

// Analyze submits both files in one multipart POST and decodes the report.
// It does not retry; every failure is an *Error.
func (c *Client) Analyze(ctx context.Context, req *SubmissionRequest) (*models.AnalysisResult, error) {
	if req == nil {
		return nil, ErrIncompleteRequest
	}

	body, contentType, err := req.Encode()
	if err != nil {
		return nil, networkError(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, body)
	if err != nil {
		return nil, networkError(err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	fmt.Printf("[Analysis] POST %s (%s %d bytes, %s %d bytes)\n", c.Endpoint,
		req.displacement.Name, len(req.displacement.Data), req.position.Name, len(req.position.Data))

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		fmt.Printf("[Analysis] ERROR: request failed: %v\n", err)
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("[Analysis] ERROR: reading response: %v\n", err)
		return nil, networkError(err)
	}

	if resp.StatusCode/100 != 2 {
		msg := backendMessage(data)
		fmt.Printf("[Analysis] ERROR: backend answered %s %s\n", resp.Status, msg)
		return nil, serverError(resp.StatusCode, msg, nil)
	}

	result, err := models.DecodeAnalysisResult(data)
	if err != nil {
		fmt.Printf("[Analysis] ERROR: %v\n", err)
		return nil, serverError(0, "", err)
	}

	fmt.Printf("[Analysis] Completed in %dms: %d rows\n", time.Since(start).Milliseconds(), len(result.Results))
	return result, nil
}

// backendMessage extracts {"error": "..."} from a failure body, if present.
func backendMessage(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Error
}
