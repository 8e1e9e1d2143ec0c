package notifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/slack-go/slack"
)

// SlackBotNotifier はBotトークンで chat.postMessage を呼び出します。
// 作成・更新・削除の通知に使います。
type SlackBotNotifier struct {
	client    *slack.Client
	channelID string
	timeout   time.Duration
}

// NewSlackBotNotifier は新しいSlackBotNotifierを作成します。
// token と channelID のどちらかが空の場合は何も送らない no-op になります。
func NewSlackBotNotifier(token, channelID string, timeout time.Duration, opts ...slack.Option) *SlackBotNotifier {
	n := &SlackBotNotifier{channelID: channelID, timeout: timeout}
	if token != "" && channelID != "" {
		n.client = slack.New(token, opts...)
	}
	return n
}

// Enabled は送信先が設定済みかを返します。
func (n *SlackBotNotifier) Enabled() bool {
	return n.client != nil
}

// Post はメッセージを送信し、結果をエラーで返します。
func (n *SlackBotNotifier) Post(ctx context.Context, message string) error {
	if !n.Enabled() {
		return ErrNotConfigured
	}
	ctx, cancel := detach(ctx, n.timeout)
	defer cancel()

	if _, _, err := n.client.PostMessageContext(ctx, n.channelID, slack.MsgOptionText(message, false)); err != nil {
		return fmt.Errorf("chat.postMessage failed: %w", err)
	}
	return nil
}

// Notify は Post の失敗をログに残して握りつぶします。
func (n *SlackBotNotifier) Notify(ctx context.Context, message string) {
	err := n.Post(ctx, message)
	switch {
	case errors.Is(err, ErrNotConfigured):
		log.Println("Slack client (Bot Token) not configured. Skipping notification.")
	case err != nil:
		log.Printf("Error sending Slack notification (Bot): %v", err)
	default:
		log.Println("Slack notification (Bot) sent successfully.")
	}
}
