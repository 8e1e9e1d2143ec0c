package repositories

import (
	"context"
	"sync"
	"time"

	"go-todo-slack/internal/models"
)

// MemoryTodoRepository はプロセス内メモリに保持する TodoRepository です。
// DBが無い環境 (モックモード・テスト) で SQL版の代わりに使います。
type MemoryTodoRepository struct {
	mu     sync.RWMutex
	todos  []*models.Todo
	nextID int64
	now    func() time.Time
}

var _ TodoRepository = (*MemoryTodoRepository)(nil)

// NewMemoryTodoRepository は seed を初期データとして持つリポジトリを作成します。
// ID が 0 の seed には連番を振ります。
func NewMemoryTodoRepository(seed ...models.Todo) *MemoryTodoRepository {
	r := &MemoryTodoRepository{nextID: 1, now: time.Now}
	for _, t := range seed {
		t := t
		if t.ID == 0 {
			t.ID = r.nextID
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = r.now()
		}
		if t.ID >= r.nextID {
			r.nextID = t.ID + 1
		}
		r.todos = append(r.todos, &t)
	}
	return r
}

// DemoTodos はモックモードで表示するサンプルデータです。
func DemoTodos(now time.Time) []models.Todo {
	return []models.Todo{
		{ID: 1, Text: "Buy groceries", Completed: false, CreatedAt: now},
		{ID: 2, Text: "Finish project report", Completed: true, CreatedAt: now.Add(-24 * time.Hour)},
		{ID: 3, Text: "Call mom", Completed: false, CreatedAt: now.Add(-48 * time.Hour)},
	}
}

// FindAll はコピーを新しい順に返します。
func (r *MemoryTodoRepository) FindAll(_ context.Context) ([]*models.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	todos := make([]*models.Todo, 0, len(r.todos))
	for _, t := range r.todos {
		c := *t
		todos = append(todos, &c)
	}
	sortNewestFirst(todos)
	return todos, nil
}

func (r *MemoryTodoRepository) Create(_ context.Context, text string, completed bool) (*models.Todo, error) {
	text, err := normalizeText(text)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t := &models.Todo{
		ID:        r.nextID,
		Text:      text,
		Completed: completed,
		CreatedAt: r.now().UTC(),
	}
	r.nextID++
	r.todos = append(r.todos, t)

	c := *t
	return &c, nil
}

func (r *MemoryTodoRepository) Update(_ context.Context, id int64, patch models.TodoPatch) (*models.Todo, models.TodoChanges, error) {
	patch, err := validatePatch(patch)
	if err != nil {
		return nil, models.TodoChanges{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, models.TodoChanges{}, ErrTodoNotFound
	}
	changes := applyPatch(r.todos[i], patch)

	c := *r.todos[i]
	return &c, changes, nil
}

func (r *MemoryTodoRepository) Delete(_ context.Context, id int64) (*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrTodoNotFound
	}
	deleted := r.todos[i]
	r.todos = append(r.todos[:i], r.todos[i+1:]...)
	return deleted, nil
}

// Ping は常に成功します。
func (r *MemoryTodoRepository) Ping(_ context.Context) error {
	return nil
}

// indexOf は呼び出し側でロックを取得している前提です。
func (r *MemoryTodoRepository) indexOf(id int64) int {
	for i, t := range r.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}
