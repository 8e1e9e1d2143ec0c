// Package testutil はHTTPレベルのテストで使う共通ヘルパーです。
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"go-todo-slack/internal/config"
	"go-todo-slack/internal/database"
	"go-todo-slack/internal/models"
	"go-todo-slack/internal/repositories"
	"go-todo-slack/internal/routes"
	"go-todo-slack/internal/services"
)

// TestEnv はテスト用ルーターと、差し込んだ偽物の依存をまとめたものです。
type TestEnv struct {
	Router    *gin.Engine
	Repo      repositories.TodoRepository
	Bot       *RecordingNotifier
	Webhook   *RecordingNotifier
	Generator *FakeGenerator
}

// Option は TestEnv の依存を差し替えます。
type Option func(*routes.Dependencies)

// WithoutGenerator は要約サービス未設定の状態を作ります。
func WithoutGenerator() Option {
	return func(d *routes.Dependencies) { d.Generator = nil }
}

// SetupTestDB はテスト用のSQLiteインメモリDBを作成し、スキーマを作成します。
func SetupTestDB(t *testing.T) (*sql.DB, database.Dialect) {
	t.Helper()
	db, dialect, err := database.InitDB(context.Background(), config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err, "Failed to set up test database")
	t.Cleanup(func() { db.Close() })
	return db, dialect
}

// SetupSQLRouter はSQLiteを使うテスト用のGinルーターをセットアップします。
func SetupSQLRouter(t *testing.T, opts ...Option) *TestEnv {
	t.Helper()
	db, dialect := SetupTestDB(t)
	return setupRouter(t, repositories.NewSQLTodoRepository(db, dialect), "sqlite", opts)
}

// SetupMemoryRouter はメモリ版ストアを使うテスト用のGinルーターをセットアップします。
func SetupMemoryRouter(t *testing.T, opts ...Option) *TestEnv {
	t.Helper()
	return setupRouter(t, repositories.NewMemoryTodoRepository(), "memory", opts)
}

func setupRouter(t *testing.T, repo repositories.TodoRepository, backend string, opts []Option) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &TestEnv{
		Repo:      repo,
		Bot:       &RecordingNotifier{},
		Webhook:   &RecordingNotifier{},
		Generator: &FakeGenerator{Reply: "Test summary."},
	}
	deps := routes.Dependencies{
		TodoRepo:        repo,
		BotNotifier:     env.Bot,
		WebhookNotifier: env.Webhook,
		Generator:       env.Generator,
		Backend:         backend,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	cfg := config.Config{CORSAllowOrigins: []string{"*"}}
	env.Router = routes.SetupRouter(cfg, deps)
	return env
}

// Do はJSONボディ付きのリクエストをルーターに送ります。body が nil の場合はボディ無しです。
func (e *TestEnv) Do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	e.Router.ServeHTTP(resp, req)
	return resp
}

// CreateTestTodo はテスト用のTODOをAPI経由で作成します。
func (e *TestEnv) CreateTestTodo(t *testing.T, text string, completed bool) *models.Todo {
	t.Helper()
	resp := e.Do(t, http.MethodPost, "/todos", map[string]any{"text": text, "completed": completed})
	require.Equal(t, http.StatusCreated, resp.Code, "TODO作成に失敗しました: %s", resp.Body.String())

	var created models.Todo
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	return &created
}

// DecodeError はエラーレスポンスの error フィールドを返します。
func DecodeError(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body), resp.Body.String())
	return body.Error
}

// RecordingNotifier は受け取ったメッセージを記録する Notifier です。
type RecordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *RecordingNotifier) Notify(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

// Messages は記録したメッセージのコピーを返します。
func (n *RecordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// Reset は記録を消去します。
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = nil
}

// FakeGenerator は決まった応答を返す services.TextGenerator です。
type FakeGenerator struct {
	Reply string
	Err   error

	mu            sync.Mutex
	prompts       []string
	lastMaxTokens int
}

var _ services.TextGenerator = (*FakeGenerator)(nil)

func (g *FakeGenerator) Generate(_ context.Context, prompt string, maxTokens int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	g.lastMaxTokens = maxTokens
	return g.Reply, g.Err
}

// Calls は Generate が呼ばれた回数です。
func (g *FakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// LastPrompt は最後に受け取ったプロンプトです。
func (g *FakeGenerator) LastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

// LastMaxTokens は最後に受け取ったトークン上限です。
func (g *FakeGenerator) LastMaxTokens() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastMaxTokens
}
