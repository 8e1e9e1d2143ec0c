// Package config は起動時に一度だけ読み込む設定を提供します。
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config はアプリケーション全体の設定です。起動後は変更しません。
type Config struct {
	Port               int
	UseMocks           bool
	SeedDemoData       bool
	IntegrationTimeout time.Duration
	CORSAllowOrigins   []string

	Database DatabaseConfig
	OpenAI   OpenAIConfig
	Slack    SlackConfig
}

// DatabaseConfig はデータベース接続パラメータです。
type DatabaseConfig struct {
	Driver   string // mysql / postgres / sqlite
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string // postgres のみ
	Path     string // sqlite のみ
}

// OpenAIConfig は要約生成サービスの設定です。
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Enabled は要約機能が使えるかを返します。
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

// SlackConfig はSlack通知の設定です。
type SlackConfig struct {
	BotToken   string
	ChannelID  string
	APIURL     string
	WebhookURL string
}

// BotEnabled はBotトークンとチャンネルが両方揃っているかを返します。
func (c SlackConfig) BotEnabled() bool {
	return c.BotToken != "" && c.ChannelID != ""
}

var defaultDBPorts = map[string]int{
	"mysql":    3306,
	"postgres": 5432,
}

// Load は .env ファイル (存在すれば) と環境変数から設定を読み込みます。
// envFiles を省略した場合はカレントディレクトリの .env を読みます。
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("Failed to load %s: %v", f, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", 5000)
	v.SetDefault("USE_MOCKS", false)
	v.SetDefault("INTEGRATION_TIMEOUT", "10s")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "todo_db")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "todo.db")
	v.SetDefault("OPENAI_MODEL", "gpt-3.5-turbo")

	cfg := Config{
		Port:               v.GetInt("PORT"),
		UseMocks:           v.GetBool("USE_MOCKS"),
		IntegrationTimeout: v.GetDuration("INTEGRATION_TIMEOUT"),
		CORSAllowOrigins:   splitList(v.GetString("CORS_ALLOW_ORIGINS")),
		Database: DatabaseConfig{
			Driver:   strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			Path:     v.GetString("DB_PATH"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
			Model:   v.GetString("OPENAI_MODEL"),
			BaseURL: strings.TrimSpace(v.GetString("OPENAI_BASE_URL")),
		},
		Slack: SlackConfig{
			BotToken:   strings.TrimSpace(v.GetString("SLACK_BOT_TOKEN")),
			ChannelID:  strings.TrimSpace(v.GetString("SLACK_CHANNEL_ID")),
			APIURL:     strings.TrimSpace(v.GetString("SLACK_API_URL")),
			WebhookURL: strings.TrimSpace(v.GetString("SLACK_WEBHOOK_URL")),
		},
	}

	// デモデータはモックモードのときだけ既定で有効
	cfg.SeedDemoData = cfg.UseMocks
	if v.IsSet("SEED_DEMO_DATA") {
		cfg.SeedDemoData = v.GetBool("SEED_DEMO_DATA")
	}

	if cfg.Database.Port == 0 {
		cfg.Database.Port = defaultDBPorts[cfg.Database.Driver]
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	if c.IntegrationTimeout < 0 {
		return fmt.Errorf("invalid INTEGRATION_TIMEOUT: %s", c.IntegrationTimeout)
	}
	if c.UseMocks {
		return nil
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required for %s", c.Database.Driver)
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %q", c.Database.Driver)
	}
	return nil
}

// Addr は http.Server 用のリッスンアドレスです。
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
