package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"

	"go-todo-slack/internal/config"
	"go-todo-slack/internal/database"
	"go-todo-slack/internal/models"
	"go-todo-slack/internal/notifier"
	"go-todo-slack/internal/repositories"
	"go-todo-slack/internal/routes"
	"go-todo-slack/internal/services"
)

// application は起動済みのルーターと、終了時に閉じるリソースを持ちます。
type application struct {
	router  *gin.Engine
	backend string
	db      *sql.DB
}

// newApplication は設定に応じてストア・通知先・要約サービスを組み立てます。
// USE_MOCKS の場合は外部サービスに一切接続しません。
func newApplication(ctx context.Context, cfg config.Config) (*application, error) {
	if cfg.UseMocks {
		return newMockApplication(cfg), nil
	}

	db, dialect, err := database.InitDB(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("could not initialize database: %w", err)
	}

	deps := routes.Dependencies{
		TodoRepo:        repositories.NewSQLTodoRepository(db, dialect),
		BotNotifier:     newBotNotifier(cfg),
		WebhookNotifier: notifier.NewSlackWebhookNotifier(cfg.Slack.WebhookURL, cfg.IntegrationTimeout),
		Backend:         string(dialect),
	}
	if cfg.OpenAI.Enabled() {
		deps.Generator = services.NewOpenAIGenerator(cfg.OpenAI, cfg.IntegrationTimeout)
	}
	logIntegrationStatus(cfg)

	return &application{
		router:  routes.SetupRouter(cfg, deps),
		backend: deps.Backend,
		db:      db,
	}, nil
}

func newMockApplication(cfg config.Config) *application {
	log.Println("Mock Mode: Real database will not be initialized or used.")

	var seed []models.Todo
	if cfg.SeedDemoData {
		seed = repositories.DemoTodos(time.Now())
	}
	if cfg.Slack.WebhookURL != "" {
		log.Printf("Mock Mode: Slack Webhook URL for summaries is configured to: %s", cfg.Slack.WebhookURL)
	} else {
		log.Println("Mock Mode: SLACK_WEBHOOK_URL not configured.")
	}

	deps := routes.Dependencies{
		TodoRepo:        repositories.NewMemoryTodoRepository(seed...),
		BotNotifier:     notifier.LogNotifier{Prefix: "Mock Slack Notification (Bot): "},
		WebhookNotifier: notifier.LogNotifier{Prefix: "Mock Slack Webhook: "},
		Generator:       services.MockGenerator{},
		Backend:         "memory",
	}
	return &application{
		router:  routes.SetupRouter(cfg, deps),
		backend: deps.Backend,
	}
}

func newBotNotifier(cfg config.Config) *notifier.SlackBotNotifier {
	var opts []slack.Option
	if cfg.Slack.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.Slack.APIURL))
	}
	return notifier.NewSlackBotNotifier(cfg.Slack.BotToken, cfg.Slack.ChannelID, cfg.IntegrationTimeout, opts...)
}

func logIntegrationStatus(cfg config.Config) {
	if !cfg.OpenAI.Enabled() {
		log.Println("Warning: OPENAI_API_KEY not found. Summary feature will be disabled.")
	}
	if !cfg.Slack.BotEnabled() {
		log.Println("Warning: SLACK_BOT_TOKEN or SLACK_CHANNEL_ID not found. Slack notifications will be disabled.")
	}
	if cfg.Slack.WebhookURL == "" {
		log.Println("Warning: SLACK_WEBHOOK_URL not found. Summaries will not be posted to Slack.")
	} else {
		log.Println("Slack Webhook URL for summaries is configured.")
	}
}

// Close はデータベース接続を閉じます。モックモードでは何もしません。
func (a *application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
