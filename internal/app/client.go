package app

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

const DefaultServerURL = "http://localhost:8000"

// Client talks JSON over HTTP to the remote index service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

type indexRequest struct {
	Path string `json:"path"`
}

type askRequest struct {
	Question string `json:"question"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Status fetches the current index summary.
func (c *Client) Status(ctx context.Context) (IndexSummary, error) {
	var sum IndexSummary
	if err := c.get(ctx, "/status", nil, &sum); err != nil {
		return IndexSummary{}, err
	}
	return normalizeSummary(sum), nil
}

// Index asks the service to (re)build the index for the given repository
// path. The response has the same shape as Status.
func (c *Client) Index(ctx context.Context, path string) (IndexSummary, error) {
	var sum IndexSummary
	if err := c.post(ctx, "/index", indexRequest{Path: path}, &sum); err != nil {
		return IndexSummary{}, err
	}
	return normalizeSummary(sum), nil
}

// Ask submits a natural-language question against the indexed repository.
func (c *Client) Ask(ctx context.Context, question string) (QueryResponse, error) {
	var resp QueryResponse
	if err := c.post(ctx, "/ask-ai", askRequest{Question: question}, &resp); err != nil {
		return QueryResponse{}, err
	}
	return resp, nil
}

// Files lists the paths of all indexed files.
func (c *Client) Files(ctx context.Context) ([]string, error) {
	var resp FileListResponse
	if err := c.get(ctx, "/files", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

// FileContent fetches one indexed file's content and line count.
func (c *Client) FileContent(ctx context.Context, path string) (FileContentResponse, error) {
	var resp FileContentResponse
	query := url.Values{"path": []string{path}}
	if err := c.get(ctx, "/file", query, &resp); err != nil {
		return FileContentResponse{}, err
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &TransportError{Detail: err.Error(), Err: err}
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &TransportError{Detail: err.Error(), Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &TransportError{Detail: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &TransportError{Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{
			StatusCode: resp.StatusCode,
			Detail:     fmt.Sprintf("failed to read response: %v", err),
			Err:        err,
		}
	}

	if resp.StatusCode >= 300 {
		return &TransportError{StatusCode: resp.StatusCode, Detail: errorText(resp.StatusCode, body)}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return &TransportError{
				StatusCode: resp.StatusCode,
				Detail:     fmt.Sprintf("invalid response body: %v", err),
				Err:        err,
			}
		}
	}
	return nil
}

// errorText resolves a non-2xx body to a user-facing message: the body's
// detail field, then message, then the HTTP status text, then a generic
// fallback.
func errorText(statusCode int, body []byte) string {
	var errResp struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &errResp)
	if errResp.Detail != "" {
		return errResp.Detail
	}
	if errResp.Message != "" {
		return errResp.Message
	}
	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	return "Request failed"
}

// normalizeSummary maps an out-of-contract status value onto the error
// state rather than letting it leak into the session.
func normalizeSummary(sum IndexSummary) IndexSummary {
	if sum.Status.Known() {
		return sum
	}
	return IndexSummary{
		Status: StatusError,
		Detail: fmt.Sprintf("unexpected status %q", string(sum.Status)),
	}
}
