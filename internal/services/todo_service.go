package services

import (
	"context"
	"fmt"
	"strings"

	"go-todo-slack/internal/models"
	"go-todo-slack/internal/notifier"
	"go-todo-slack/internal/repositories"
)

// TodoService はTodo関連のビジネスロジックを扱います。
// 書き込みが成功した後にだけ通知を送ります。
type TodoService struct {
	todoRepo repositories.TodoRepository
	notifier notifier.Notifier
}

// NewTodoService は新しいTodoServiceを作成します。
func NewTodoService(todoRepo repositories.TodoRepository, n notifier.Notifier) *TodoService {
	if n == nil {
		n = notifier.Nop{}
	}
	return &TodoService{todoRepo: todoRepo, notifier: n}
}

// GetTodos は全Todoを新しい順に取得します。
func (s *TodoService) GetTodos(ctx context.Context) ([]*models.Todo, error) {
	return s.todoRepo.FindAll(ctx)
}

// CreateTodo は新しいTodoを作成し、作成を通知します。
func (s *TodoService) CreateTodo(ctx context.Context, req models.CreateTodoRequest) (*models.Todo, error) {
	todo, err := s.todoRepo.Create(ctx, req.Text, req.Completed)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, CreatedMessage(todo))
	return todo, nil
}

// UpdateTodo はTodoを更新します。値が実際に変わった場合だけ通知します。
func (s *TodoService) UpdateTodo(ctx context.Context, id int64, patch models.TodoPatch) (*models.Todo, error) {
	todo, changes, err := s.todoRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if !changes.Empty() {
		s.notifier.Notify(ctx, UpdatedMessage(todo, changes))
	}
	return todo, nil
}

// DeleteTodo はTodoを削除し、削除したTodoを返します。
func (s *TodoService) DeleteTodo(ctx context.Context, id int64) (*models.Todo, error) {
	todo, err := s.todoRepo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, DeletedMessage(todo))
	return todo, nil
}

// CreatedMessage は作成通知の本文です。
func CreatedMessage(todo *models.Todo) string {
	return fmt.Sprintf(`🎉 New Todo Added: "%s"`, todo.Text)
}

// UpdatedMessage は更新通知の本文です。見出しには更新前の text を使います。
func UpdatedMessage(todo *models.Todo, changes models.TodoChanges) string {
	var parts []string
	if changes.Text {
		parts = append(parts, fmt.Sprintf(`text updated to "%s"`, todo.Text))
	}
	if changes.Completed {
		state := "incomplete"
		if todo.Completed {
			state = "complete"
		}
		parts = append(parts, "marked as "+state)
	}
	return fmt.Sprintf(`🔔 Todo Updated: "%s" - %s.`, changes.Before.Text, strings.Join(parts, ", "))
}

// DeletedMessage は削除通知の本文です。
func DeletedMessage(todo *models.Todo) string {
	return fmt.Sprintf(`🗑️ Todo Deleted: "%s"`, todo.Text)
}
