package services

import (
	"context"
	"fmt"
	"strings"
)

// MockGenerator は外部サービスを呼ばずに定型文の要約を返します (モックモード用)。
type MockGenerator struct{}

var _ TextGenerator = MockGenerator{}

// Generate はプロンプト中のTodo行を数え、先頭のTodoを挙げた要約を返します。
func (MockGenerator) Generate(_ context.Context, prompt string, _ int) (string, error) {
	var items []string
	for _, line := range strings.Split(prompt, "\n") {
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		item := strings.TrimPrefix(line, "- ")
		item = strings.TrimSuffix(item, " (Completed)")
		item = strings.TrimSuffix(item, " (Pending)")
		items = append(items, item)
	}

	first := "something"
	if len(items) > 0 {
		first = items[0]
	}
	return fmt.Sprintf("This is a mock summary of %d todos. The most important mock task is probably '%s'.", len(items), first), nil
}
