// Package client はTodo APIのGoクライアントです。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-todo-slack/internal/models"
)

// APIError はサーバーが 2xx 以外を返した場合のエラーです。
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// Client はTodo APIを呼び出します。
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option は Client の設定を変更します。
type Option func(*Client)

// WithHTTPClient は使用する http.Client を差し替えます。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New は baseURL (例: http://localhost:5000) 向けの Client を作成します。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List は全Todoを新しい順に取得します。
func (c *Client) List(ctx context.Context) ([]models.Todo, error) {
	var todos []models.Todo
	if err := c.do(ctx, http.MethodGet, "/todos", nil, &todos); err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	return todos, nil
}

// Create はTodoを作成します。
func (c *Client) Create(ctx context.Context, text string) (*models.Todo, error) {
	var todo models.Todo
	if err := c.do(ctx, http.MethodPost, "/todos", models.CreateTodoRequest{Text: text}, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// Update は patch で指定したフィールドだけ更新します。
func (c *Client) Update(ctx context.Context, id int64, patch models.TodoPatch) (*models.Todo, error) {
	var todo models.Todo
	if err := c.do(ctx, http.MethodPut, todoPath(id), patch, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// Delete はTodoを削除し、削除されたTodoを返します。
func (c *Client) Delete(ctx context.Context, id int64) (*models.Todo, error) {
	var resp models.DeleteTodoResponse
	if err := c.do(ctx, http.MethodDelete, todoPath(id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.DeletedTodo, nil
}

// Summarize はTodo一覧の要約を依頼します。
func (c *Client) Summarize(ctx context.Context) (string, error) {
	var resp models.SummaryResponse
	if err := c.do(ctx, http.MethodPost, "/todos/summary", nil, &resp); err != nil {
		return "", err
	}
	return resp.Summary, nil
}

func todoPath(id int64) string {
	return "/todos/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("could not encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &errBody) == nil {
			apiErr.Message = errBody.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	return nil
}
