// Package notifier はチャットへのベストエフォート通知を提供します。
// Notify は失敗してもエラーを返さず、ログに残すだけです。
package notifier

import (
	"context"
	"errors"
	"log"
	"time"
)

var (
	// ErrNotConfigured は通知先が設定されていない場合のエラーです。
	ErrNotConfigured = errors.New("notifier not configured")
)

// Notifier はメッセージを1件配信します。
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// Nop は何もしない Notifier です。
type Nop struct{}

func (Nop) Notify(context.Context, string) {}

// LogNotifier はメッセージをログに出力するだけの Notifier です (モックモード用)。
type LogNotifier struct {
	Prefix string
}

func (n LogNotifier) Notify(_ context.Context, message string) {
	log.Printf("%s%s", n.Prefix, message)
}

// detach はリクエストのキャンセルから切り離し、timeout を付けたコンテキストを返します。
func detach(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
