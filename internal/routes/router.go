// Package routesはroutingを行います。
package routes

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go-todo-slack/internal/config"
	"go-todo-slack/internal/handlers"
	"go-todo-slack/internal/notifier"
	"go-todo-slack/internal/repositories"
	"go-todo-slack/internal/services"
)

// Dependencies はルーターが使う外部依存です。nil の通知先は何もしません。
type Dependencies struct {
	TodoRepo        repositories.TodoRepository
	BotNotifier     notifier.Notifier
	WebhookNotifier notifier.Notifier
	Generator       services.TextGenerator // nil の場合は要約が 503 になる
	Backend         string
}

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
func SetupRouter(cfg config.Config, deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithFormatter(accessLog), gin.Recovery(), RequestIDMiddleware())

	// CORS対策
	r.Use(cors.New(corsConfig(cfg.CORSAllowOrigins)))

	// サービス
	todoService := services.NewTodoService(deps.TodoRepo, deps.BotNotifier)
	summaryService := services.NewSummaryService(deps.TodoRepo, deps.Generator, deps.WebhookNotifier)

	// ハンドラー
	todoHandler := handlers.NewTodoHandler(todoService, summaryService)
	healthHandler := handlers.NewHealthHandler(deps.TodoRepo, deps.Backend)

	// ルーティング
	r.GET("/health", healthHandler.Health)
	r.GET("/todos", todoHandler.GetTodosHandler)
	r.POST("/todos", todoHandler.CreateTodoHandler)
	r.POST("/todos/summary", todoHandler.SummaryHandler)
	r.PUT("/todos/:id", todoHandler.UpdateTodoHandler)
	r.DELETE("/todos/:id", todoHandler.DeleteTodoHandler)

	return r
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", RequestIDHeader}
	config.ExposeHeaders = []string{RequestIDHeader}
	config.MaxAge = 12 * time.Hour
	if len(origins) == 0 || slices.Contains(origins, "*") {
		config.AllowAllOrigins = true
		return config
	}
	config.AllowOrigins = origins
	return config
}

// accessLog はリクエストIDを含むアクセスログの書式です。
func accessLog(p gin.LogFormatterParams) string {
	return fmt.Sprintf("[GIN] %s | %3d | %13v | %15s | %-7s %q | %s\n",
		p.TimeStamp.Format("2006/01/02 - 15:04:05"),
		p.StatusCode,
		p.Latency,
		p.ClientIP,
		p.Method,
		p.Path,
		p.Keys[requestIDKey],
	)
}
