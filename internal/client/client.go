// Package client is the HTTP data access layer for the task board API.
// Every call is a single request/response exchange: no retries, no caching.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"taskboard/internal/models"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the access token sent as a Bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the API at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchTasks returns the tasks in the given date range.
func (c *Client) FetchTasks(ctx context.Context, filter models.Filter) ([]models.Task, error) {
	var tasks []models.Task
	path := "/api/tasks?filter=" + url.QueryEscape(string(filter))
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (c *Client) FetchAnalytics(ctx context.Context) (models.Analytics, error) {
	var analytics models.Analytics
	if err := c.do(ctx, http.MethodGet, "/api/tasks/analytics", nil, &analytics); err != nil {
		return nil, err
	}
	return analytics, nil
}

// FetchPeople returns the collaborator list. A body without a "people" array
// yields ErrShapeMismatch.
func (c *Client) FetchPeople(ctx context.Context) ([]string, error) {
	var body map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/people", nil, &body); err != nil {
		return nil, err
	}
	raw, ok := body["people"]
	if !ok {
		return nil, fmt.Errorf("%w: missing \"people\"", ErrShapeMismatch)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: \"people\" is not an array", ErrShapeMismatch)
	}
	var people []string
	if err := json.Unmarshal(raw, &people); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}
	return people, nil
}

func (c *Client) FetchUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/user", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// AddPerson asks the server to add a collaborator and returns its success flag.
func (c *Client) AddPerson(ctx context.Context, email string) (bool, error) {
	var resp models.AddPersonResponse
	err := c.do(ctx, http.MethodPost, "/api/people", models.AddPersonRequest{Email: email}, &resp)
	if err != nil {
		return false, err
	}
	return resp.Success, nil
}

func (c *Client) SuggestPeople(ctx context.Context, query string) ([]models.PersonSuggestion, error) {
	var resp struct {
		Suggestions []models.PersonSuggestion `json:"suggestions"`
	}
	path := "/api/people/suggestions?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	req := models.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &ServerError{StatusCode: resp.StatusCode}
		var payload models.ErrorResponse
		if b, _ := io.ReadAll(resp.Body); json.Unmarshal(b, &payload) == nil {
			se.Code, se.Message = payload.Error, payload.Message
		}
		return se
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrShapeMismatch, method, path, err)
	}
	return nil
}
