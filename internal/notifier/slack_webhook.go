package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

const (
	summaryHeader       = "📝 Todo List Summary"
	summaryFallbackText = "📝 *OpenAI Todo Summary*"

	// Incoming Webhook は成功時に本文 "ok" を返す
	webhookAck = "ok"
)

var (
	ErrInvalidWebhookURL = errors.New("invalid webhook URL")
	ErrWebhookRejected   = errors.New("webhook rejected message")
)

// SlackWebhookNotifier は Incoming Webhook にブロック形式のメッセージを送ります。
// 要約の通知に使います。
type SlackWebhookNotifier struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// NewSlackWebhookNotifier は新しいSlackWebhookNotifierを作成します。
func NewSlackWebhookNotifier(webhookURL string, timeout time.Duration) *SlackWebhookNotifier {
	return &SlackWebhookNotifier{
		url:     webhookURL,
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Enabled はURLが設定されているかを返します (形式の正しさは問いません)。
func (n *SlackWebhookNotifier) Enabled() bool {
	return n.url != ""
}

// SummaryMessage はヘッダー・区切り線・本文セクションからなるメッセージを作ります。
func SummaryMessage(summary string) *slack.WebhookMessage {
	header := slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, summaryHeader, true, false))
	body := slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, summary, false, false), nil, nil)
	return &slack.WebhookMessage{
		Text: summaryFallbackText,
		Blocks: &slack.Blocks{
			BlockSet: []slack.Block{header, slack.NewDividerBlock(), body},
		},
	}
}

// Post はメッセージを送信し、結果をエラーで返します。
func (n *SlackWebhookNotifier) Post(ctx context.Context, message string) error {
	if !n.Enabled() {
		return ErrNotConfigured
	}
	if err := validateWebhookURL(n.url); err != nil {
		return err
	}

	payload, err := json.Marshal(SummaryMessage(message))
	if err != nil {
		return fmt.Errorf("could not marshal webhook payload: %w", err)
	}

	ctx, cancel := detach(ctx, n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("could not create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("could not read webhook response: %w", err)
	}
	text := strings.TrimSpace(string(body))
	if resp.StatusCode != http.StatusOK || !strings.EqualFold(text, webhookAck) {
		return fmt.Errorf("%w: %d - %s", ErrWebhookRejected, resp.StatusCode, text)
	}
	return nil
}

// Notify は Post の失敗をログに残して握りつぶします。
func (n *SlackWebhookNotifier) Notify(ctx context.Context, message string) {
	err := n.Post(ctx, message)
	switch {
	case errors.Is(err, ErrNotConfigured):
		log.Println("SLACK_WEBHOOK_URL not configured. Skipping summary post to Slack webhook.")
	case errors.Is(err, ErrInvalidWebhookURL):
		log.Printf("Error parsing SLACK_WEBHOOK_URL. Please ensure it is a valid URL: %v", err)
	case err != nil:
		log.Printf("Error posting summary to Slack webhook: %v", err)
	default:
		log.Println("Summary posted to Slack webhook successfully.")
	}
}

func validateWebhookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWebhookURL, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidWebhookURL, raw)
	}
	return nil
}
