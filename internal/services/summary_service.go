package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-todo-slack/internal/models"
	"go-todo-slack/internal/notifier"
	"go-todo-slack/internal/repositories"
)

const (
	// SummaryMaxTokens は要約1回あたりの出力トークン上限です。
	SummaryMaxTokens = 200

	NoTodosSummary    = "No todos found to summarize."
	EmptySummaryReply = "Could not generate summary."

	summaryInstruction = "Please provide a concise summary of the following todo list. " +
		"Highlight any urgent tasks or patterns if possible. The todo list is:\n"
)

var (
	// ErrSummaryUnavailable は要約サービスが設定されていない場合のエラーです。
	ErrSummaryUnavailable = errors.New("summary service not configured")
	// ErrSummaryGeneration は外部サービスの呼び出しに失敗した場合のエラーです。
	ErrSummaryGeneration = errors.New("summary generation failed")
)

// TextGenerator はプロンプトから文章を生成します。
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// SummaryService はTodo一覧の要約を作成し、Webhookに流します。
type SummaryService struct {
	todoRepo  repositories.TodoRepository
	generator TextGenerator
	webhook   notifier.Notifier
}

// NewSummaryService は新しいSummaryServiceを作成します。
// generator が nil の場合、要約は ErrSummaryUnavailable になります。
func NewSummaryService(todoRepo repositories.TodoRepository, generator TextGenerator, webhook notifier.Notifier) *SummaryService {
	if webhook == nil {
		webhook = notifier.Nop{}
	}
	return &SummaryService{todoRepo: todoRepo, generator: generator, webhook: webhook}
}

// Enabled は要約機能が使えるかを返します。
func (s *SummaryService) Enabled() bool {
	return s.generator != nil
}

// Summarize は todos の要約を返します。空の場合は生成サービスを呼びません。
func (s *SummaryService) Summarize(ctx context.Context, todos []*models.Todo) (string, error) {
	if !s.Enabled() {
		return "", ErrSummaryUnavailable
	}
	if len(todos) == 0 {
		return NoTodosSummary, nil
	}

	text, err := s.generator.Generate(ctx, BuildSummaryPrompt(todos), SummaryMaxTokens)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSummaryGeneration, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return EmptySummaryReply, nil
	}
	return text, nil
}

// SummarizeAll は全Todoを要約し、生成できた要約をWebhookに送ります。
func (s *SummaryService) SummarizeAll(ctx context.Context) (string, error) {
	if !s.Enabled() {
		return "", ErrSummaryUnavailable
	}
	todos, err := s.todoRepo.FindAll(ctx)
	if err != nil {
		return "", err
	}
	summary, err := s.Summarize(ctx, todos)
	if err != nil {
		return "", err
	}
	if len(todos) > 0 {
		s.webhook.Notify(ctx, summary)
	}
	return summary, nil
}

// BuildSummaryPrompt は要約用のプロンプトを組み立てます。
func BuildSummaryPrompt(todos []*models.Todo) string {
	lines := make([]string, 0, len(todos))
	for _, t := range todos {
		status := "Pending"
		if t.Completed {
			status = "Completed"
		}
		lines = append(lines, fmt.Sprintf("- %s (%s)", t.Text, status))
	}
	return summaryInstruction + strings.Join(lines, "\n") + "\n\nSummary:"
}
