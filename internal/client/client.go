// Package client is an HTTP client for the posts API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"blogrr/internal/models"
)

// ErrFieldsRequired is the message shown when a form has a blank field.
const ErrFieldsRequired = "All fields are required"

// ValidationError is returned before any request is sent when a form is incomplete.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// PostForm is the create and edit form. Every field is required.
type PostForm struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

// Validate rejects a form with any field empty after trimming.
func (f PostForm) Validate() error {
	if strings.TrimSpace(f.Title) == "" || strings.TrimSpace(f.Content) == "" || strings.TrimSpace(f.Author) == "" {
		return &ValidationError{Message: ErrFieldsRequired}
	}
	return nil
}

// Client talks to the posts API rooted at baseURL (for example http://localhost:4000/api).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListPosts(ctx context.Context) ([]models.Post, error) {
	posts := make([]models.Post, 0)
	if err := c.do(ctx, http.MethodGet, "/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := c.do(ctx, http.MethodGet, postPath(id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost validates form locally and only then sends it.
func (c *Client) CreatePost(ctx context.Context, form PostForm) (*models.Post, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	var post models.Post
	if err := c.do(ctx, http.MethodPost, "/posts", form, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost validates form locally and sends all three fields.
func (c *Client) UpdatePost(ctx context.Context, id uint, form PostForm) (*models.Post, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	var post models.Post
	if err := c.do(ctx, http.MethodPatch, postPath(id), form, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, id uint) error {
	var resp models.MessageResponse
	return c.do(ctx, http.MethodDelete, postPath(id), nil, &resp)
}

func postPath(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body models.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		apiErr.Message = body.Message
		apiErr.Code = body.Code
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
