// Package client talks to the comparison service over its HTTP contract:
// one multipart POST to /api/compare/ answered by a JSON array of results or
// a JSON object carrying an "error" message.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/BerylCAtieno/invoice-checker/internal/models"
)

const (
	ComparePath = "/api/compare/"
	ModelsPath  = "/api/models/"

	// GenericErrorMessage is shown when the service gave no usable message.
	GenericErrorMessage = "An error occurred during comparison. Please try again."
)

// Error is a failed call. StatusCode is zero when no response arrived.
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("comparison request failed: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("comparison service returned %d: %s", e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("comparison service returned %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("comparison service returned %d", e.StatusCode)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the text to show: the service's own message verbatim, or the
// generic fallback.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return GenericErrorMessage
}

// Client posts documents to the comparison endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the service at baseURL. A zero timeout leaves the
// transport defaults in place.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Compare posts the uploads as one multipart request and returns the results
// in the order the service sent them.
func (c *Client) Compare(ctx context.Context, uploads []models.Upload) ([]models.ComparisonResult, error) {
	body, contentType, err := encodeUploads(uploads)
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("encode uploads: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ComparePath, body)
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	var results []models.ComparisonResult
	if err := c.do(req, &results); err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.ComparisonResult{}
	}
	return results, nil
}

func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+ModelsPath, nil)
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	var names []string
	if err := c.do(req, &names); err != nil {
		return nil, err
	}
	return names, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorMessage returns the "error" string of a JSON error body, or "".
func errorMessage(body []byte) string {
	var payload models.ErrorResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeUploads(uploads []models.Upload) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, up := range uploads {
		contentType := up.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(up.Field), quoteEscaper.Replace(up.Filename)))
		header.Set("Content-Type", contentType)

		part, err := mw.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(up.Data); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
