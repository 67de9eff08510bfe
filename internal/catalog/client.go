package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/kinohq/kino/internal/shared"
)

// Service defines the catalog operations consumed by the UI and CLI layers.
type Service interface {
	List(ctx context.Context, page, limit int) (*Page, error)
	Get(ctx context.Context, id string) (*Movie, error)
	Create(ctx context.Context, draft Draft) (*Movie, error)
	Update(ctx context.Context, id string, patch Patch) (*Movie, error)
	Delete(ctx context.Context, id string) error
}

// TokenSource supplies a currently valid bearer token. It is invoked on
// every request so a refreshed token is picked up immediately; the client
// never caches tokens.
type TokenSource func(ctx context.Context) (string, error)

// Client implements [Service] over the catalog REST endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	timeout    time.Duration
}

var _ Service = (*Client)(nil)

// NewClient creates a catalog client. The timeout bounds list and get
// requests; zero selects the 10 second default.
func NewClient(baseURL string, tokens TokenSource, client *http.Client, timeout time.Duration) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: client,
		tokens:     tokens,
		timeout:    timeout,
	}
}

// List retrieves one page of the catalog.
func (c *Client) List(ctx context.Context, page, limit int) (*Page, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1", shared.ErrValidation)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", shared.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("/movies?page=%d&limit=%d", page, limit)
	body, err := c.doRequest(ctx, http.MethodGet, endpoint, nil, "", "fetching movies")
	if err != nil {
		return nil, err
	}

	return decodePage(body)
}

// Get retrieves a single movie by id.
func (c *Client) Get(ctx context.Context, id string) (*Movie, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: movie id is required", shared.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := c.doRequest(ctx, http.MethodGet, "/movies/"+url.PathEscape(id), nil, "", "fetching movie")
	if err != nil {
		return nil, err
	}

	return decodeMovie(body)
}

// Create submits a new movie as multipart form data; the backend assigns
// the id. Validation failures are returned before any request is issued.
func (c *Client) Create(ctx context.Context, draft Draft) (*Movie, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	form, contentType, err := encodeMovieForm(draft.Title, draft.Year, draft.ImagePath)
	if err != nil {
		return nil, err
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/movies", form, contentType, "creating movie")
	if err != nil {
		return nil, err
	}

	return decodeMovie(body)
}

// Update patches an existing movie. Only supplied fields are encoded, so
// omitted fields keep their server-side values.
func (c *Client) Update(ctx context.Context, id string, patch Patch) (*Movie, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: movie id is required", shared.ErrValidation)
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	form, contentType, err := encodeMovieForm(patch.Title, patch.Year, patch.ImagePath)
	if err != nil {
		return nil, err
	}

	body, err := c.doRequest(ctx, http.MethodPatch, "/movies/"+url.PathEscape(id), form, contentType, "updating movie")
	if err != nil {
		return nil, err
	}

	return decodeMovie(body)
}

// Delete removes a movie. A 404 is treated as success: the record is gone
// either way, so deleting twice is a no-op rather than an error.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: movie id is required", shared.ErrValidation)
	}

	_, err := c.doRequest(ctx, http.MethodDelete, "/movies/"+url.PathEscape(id), nil, "", "deleting movie")
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	return err
}

// encodeMovieForm builds a multipart body with title/publishYear fields and
// an optional image file part. Empty values are omitted entirely.
func encodeMovieForm(title, year, imagePath string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if title != "" {
		if err := writer.WriteField("title", title); err != nil {
			return nil, "", fmt.Errorf("failed to encode form field: %w", err)
		}
	}
	if year != "" {
		if err := writer.WriteField("publishYear", year); err != nil {
			return nil, "", fmt.Errorf("failed to encode form field: %w", err)
		}
	}

	if imagePath != "" {
		file, err := os.Open(imagePath)
		if err != nil {
			return nil, "", fmt.Errorf("%w: failed to open image file: %v", shared.ErrValidation, err)
		}
		defer file.Close()

		part, err := writer.CreateFormFile("image", filepath.Base(imagePath))
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode image part: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, "", fmt.Errorf("failed to read image file: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// doRequest performs an authenticated request and returns the response body
// or a classified error. contentType is empty for JSON-accepting requests.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body *bytes.Buffer, contentType, operation string) ([]byte, error) {
	token, err := c.tokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", operation, err)
	}

	apiURL := c.baseURL + endpoint

	var reader io.Reader
	if body != nil {
		reader = body
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	} else {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s failed: %w: %v", operation, shared.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%s failed: %w: %v", operation, shared.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s failed: failed to read response: %w", operation, err)
	}

	if err := classifyStatus(resp.StatusCode, operation); err != nil {
		return nil, err
	}

	return data, nil
}

// classifyStatus maps HTTP failures onto the shared error taxonomy so
// callers can branch on the cause instead of parsing status codes.
func classifyStatus(status int, operation string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%s failed: %w", operation, shared.ErrAuthExpired)
	case status == http.StatusForbidden:
		return fmt.Errorf("%s failed: %w", operation, shared.ErrPermissionDenied)
	case status == http.StatusNotFound:
		return fmt.Errorf("%s failed: %w", operation, shared.ErrNotFound)
	default:
		return fmt.Errorf("%s failed: %w: status %d", operation, shared.ErrRequestFailed, status)
	}
}
