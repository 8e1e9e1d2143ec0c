package client

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"go-todo-slack/internal/models"
)

var (
	// ErrBlankEdit は空白だけの編集をサーバーに送らずに弾いた場合のエラーです。
	ErrBlankEdit = errors.New("todo text must not be blank")
	// ErrNotOnBoard は一覧に無いTodoを切り替えようとした場合のエラーです。
	ErrNotOnBoard = errors.New("todo is not on the board; refresh first")
)

// Board はクライアント側で表示しているTodo一覧です。
// 状態はサーバーの応答からだけ更新し、失敗した操作では変えません。
type Board struct {
	client *Client

	mu    sync.Mutex
	todos []models.Todo
}

// NewBoard は空の Board を作成します。
func NewBoard(c *Client) *Board {
	return &Board{client: c, todos: []models.Todo{}}
}

// Todos は現在の一覧のコピーを返します。
func (b *Board) Todos() []models.Todo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.todos)
}

// Refresh はサーバーの一覧で置き換えます。
func (b *Board) Refresh(ctx context.Context) error {
	todos, err := b.client.List(ctx)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.todos = todos
	return nil
}

// Add はTodoを作成し、サーバーが返したものを一覧に加えます。
func (b *Board) Add(ctx context.Context, text string) (*models.Todo, error) {
	todo, err := b.client.Create(ctx, text)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.todos = append(b.todos, *todo)
	sortNewestFirst(b.todos)
	return todo, nil
}

// Toggle は完了状態を反転します。completed だけを送ります。
func (b *Board) Toggle(ctx context.Context, id int64) (*models.Todo, error) {
	current, ok := b.find(id)
	if !ok {
		return nil, ErrNotOnBoard
	}
	return b.SetCompleted(ctx, id, !current.Completed)
}

// SetCompleted は完了状態を指定した値にします。completed だけを送ります。
func (b *Board) SetCompleted(ctx context.Context, id int64, completed bool) (*models.Todo, error) {
	todo, err := b.client.Update(ctx, id, models.TodoPatch{Completed: &completed})
	if err != nil {
		return nil, err
	}
	b.replace(*todo)
	return todo, nil
}

// Edit は本文を変更します。text だけを送ります。
func (b *Board) Edit(ctx context.Context, id int64, text string) (*models.Todo, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrBlankEdit
	}
	todo, err := b.client.Update(ctx, id, models.TodoPatch{Text: &text})
	if err != nil {
		return nil, err
	}
	b.replace(*todo)
	return todo, nil
}

// Remove はTodoを削除し、一覧から取り除きます。削除されたTodoを返します。
func (b *Board) Remove(ctx context.Context, id int64) (*models.Todo, error) {
	todo, err := b.client.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.todos = slices.DeleteFunc(b.todos, func(t models.Todo) bool { return t.ID == id })
	return todo, nil
}

// Summary は要約を取得します。一覧は変えません。
func (b *Board) Summary(ctx context.Context) (string, error) {
	return b.client.Summarize(ctx)
}

func (b *Board) find(id int64) (models.Todo, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := slices.IndexFunc(b.todos, func(t models.Todo) bool { return t.ID == id })
	if i < 0 {
		return models.Todo{}, false
	}
	return b.todos[i], true
}

func (b *Board) replace(todo models.Todo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.todos {
		if b.todos[i].ID == todo.ID {
			b.todos[i] = todo
			return
		}
	}
}

func sortNewestFirst(todos []models.Todo) {
	slices.SortStableFunc(todos, func(a, b models.Todo) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
}
