// Package restapi implements service.API over the task tracker REST API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"tasker/internal/config"
	"tasker/internal/service"
)

// Client implements service.API using plain HTTP + JSON.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	log     *zap.SugaredLogger
}

// New creates a client for the API configured in cfg.
// The HTTP client has no cookie jar: credentials are only ever sent as an
// explicit bearer header.
func New(cfg *config.Config, log *zap.SugaredLogger) *Client {
	c := NewWithHTTPClient(cfg.Env.APIURL, &http.Client{Transport: http.DefaultTransport}, log)
	c.timeout = cfg.Env.HTTPTimeout
	return c
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     log,
	}
}

type tokenResponse struct {
	Token string `json:"token"`
}

type taskListResponse struct {
	Tasks []service.Task `json:"tasks"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Login implements service.API.
func (c *Client) Login(ctx context.Context, creds service.Credentials) (string, error) {
	var resp tokenResponse
	if err := c.do(ctx, c.http, http.MethodPost, "/auth/login", nil, creds, &resp); err != nil {
		return "", err
	}
	return tokenOf(resp)
}

// Register implements service.API.
func (c *Client) Register(ctx context.Context, creds service.Credentials) (string, error) {
	var resp tokenResponse
	if err := c.do(ctx, c.http, http.MethodPost, "/user", nil, creds, &resp); err != nil {
		return "", err
	}
	return tokenOf(resp)
}

// CurrentUser implements service.API.
func (c *Client) CurrentUser(ctx context.Context, token string) (service.User, error) {
	var user service.User
	err := c.do(ctx, c.bearer(ctx, token), http.MethodGet, "/user", nil, nil, &user)
	return user, err
}

// ListTasks implements service.API.
func (c *Client) ListTasks(ctx context.Context, token string, filter service.Filter) ([]service.Task, error) {
	var query url.Values
	if completed := filter.Completed(); completed != nil {
		query = url.Values{"completed": {strconv.FormatBool(*completed)}}
	}

	var resp taskListResponse
	if err := c.do(ctx, c.bearer(ctx, token), http.MethodGet, "/tasks", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// GetTask implements service.API.
func (c *Client) GetTask(ctx context.Context, token string, id int64) (service.Task, error) {
	var task service.Task
	err := c.do(ctx, c.bearer(ctx, token), http.MethodGet, taskPath(id), nil, nil, &task)
	return task, err
}

// CreateTask implements service.API.
func (c *Client) CreateTask(ctx context.Context, token string, in service.TaskInput) (service.Task, error) {
	var task service.Task
	err := c.do(ctx, c.bearer(ctx, token), http.MethodPost, "/tasks", nil, in, &task)
	return task, err
}

// UpdateTask implements service.API.
func (c *Client) UpdateTask(ctx context.Context, token string, id int64, upd service.TaskUpdate) (service.Task, error) {
	var task service.Task
	err := c.do(ctx, c.bearer(ctx, token), http.MethodPut, taskPath(id), nil, upd, &task)
	return task, err
}

// DeleteTask implements service.API.
func (c *Client) DeleteTask(ctx context.Context, token string, id int64) error {
	return c.do(ctx, c.bearer(ctx, token), http.MethodDelete, taskPath(id), nil, nil, nil)
}

// bearer returns an HTTP client that sends token in the Authorization header.
func (c *Client) bearer(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, query url.Values, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debugw("api request", "method", method, "url", u)
	resp, err := hc.Do(req)
	if err != nil {
		return wrapError(err)
	}
	defer resp.Body.Close()
	c.log.Debugw("api response", "method", method, "url", u, "status", resp.StatusCode)

	if err := googleapi.CheckResponse(resp); err != nil {
		return wrapError(err)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}

func tokenOf(resp tokenResponse) (string, error) {
	if resp.Token == "" {
		return "", errors.New("api returned an empty token")
	}
	return resp.Token, nil
}

// wrapError converts transport and status errors into service errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		se := &service.StatusError{Code: gerr.Code, Message: gerr.Message}
		var body errorResponse
		if json.Unmarshal([]byte(gerr.Body), &body) == nil && body.Message != "" {
			se.Message = body.Message
		}
		return se
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	return err
}
