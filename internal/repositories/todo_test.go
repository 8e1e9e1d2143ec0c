package repositories

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-todo-slack/internal/config"
	"go-todo-slack/internal/database"
	"go-todo-slack/internal/models"
)

func ptr[T any](v T) *T { return &v }

// forEachRepository は同じテストをメモリ版とSQL版 (SQLite) の両方で実行します。
func forEachRepository(t *testing.T, fn func(t *testing.T, repo TodoRepository)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryTodoRepository())
	})
	t.Run("sql", func(t *testing.T) {
		db, dialect, err := database.InitDB(context.Background(), config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		fn(t, NewSQLTodoRepository(db, dialect))
	})
}

func idsOf(todos []*models.Todo) []int64 {
	ids := make([]int64, 0, len(todos))
	for _, t := range todos {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestCreate_ThenFindAll(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo TodoRepository) {
		ctx := context.Background()

		first, err := repo.Create(ctx, "Buy milk", false)
		require.NoError(t, err)
		second, err := repo.Create(ctx, "  Call mom  ", false)
		require.NoError(t, err)

		assert.NotZero(t, first.ID)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, "Call mom", second.Text, "text is stored trimmed")
		assert.False(t, second.Completed)
		assert.WithinDuration(t, time.Now(), second.CreatedAt, 5*time.Second)

		todos, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, todos, 2)
		assert.Equal(t, []int64{second.ID, first.ID}, idsOf(todos), "newest first")
	})
}

func TestCreate_Completed(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo TodoRepository) {
		created, err := repo.Create(context.Background(), "Already done", true)
		require.NoError(t, err)
		assert.True(t, created.Completed)
	})
}

func TestCreate_RejectsBlankText(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo TodoRepository) {
		ctx := context.Background()
		for _, text := range []string{"", "   ", "\t\n"} {
			_, err := repo.Create(ctx, text, false)
			require.ErrorIs(t, err, ErrEmptyText)
			require.ErrorIs(t, err, ErrValidation)
		}

		todos, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, todos, "nothing persisted")
	})
}

func TestCreate_RejectsTooLongText(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo TodoRepository) {
		_, err := repo.Create(context.Background(), strings.Repeat("あ", models.MaxTextLength+1), false)
		require.ErrorIs(t, err, ErrTextTooLong)

		_, err = repo.Create(context.Background(), strings.Repeat("a", models.MaxTextLength), false)
		require.NoError(t, err)
	})
}

func TestCreate_IDsAreNeverReused(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo TodoRepository) {
		ctx := context.Background()
		a, err := repo.Create(ctx, "a", false)
		require.NoError(t, err)
		b, err := repo.Create(ctx, "b", false)
		require.NoError(t, err)
		_, err = repo.Delete(ctx, b.ID)
		require.NoError(t, err)

		c, err := repo.Create(ctx, "c", false)
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, c.ID)
		assert.NotEqual(t, b.ID, c.ID)
		assert.Greater(t, c.ID, b.ID)
	})
}

func TestUpdate_NothingToUpdate(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo TodoRepository) {
		ctx := context.Background()
		created, err := repo.Create(ctx, "Buy milk", false)
		require.NoError(t, err)

		_, _, err = repo.Update(ctx, created.ID, models.TodoPatch{})
		require.ErrorIs(t, err, ErrNothingToUpdate)
		require.ErrorIs(t, err, ErrValidation)

		todos, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.Equal(t, *created, *todos[0], "state unchanged")
	})
}

func TestUpdate_BlankTextRejected(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo TodoRepository) {
		ctx := context.Background()
		created, err := repo.Create(ctx, "Buy milk", false)
		require.NoError(t, err)

		_, _, err = repo.Update(ctx, created.ID, models.TodoPatch{Text: ptr("  ")})
		require.ErrorIs(t, err, ErrEmptyText)
	})
}

func TestUpdate_NotFound(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo TodoRepository) {
		_, _, err := repo.Update(context.Background(), 999, models.TodoPatch{Completed: ptr(true)})
		require.ErrorIs(t, err, ErrTodoNotFound)
	})
}

func TestUpdate_AppliesOnlySuppliedFields(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo TodoRepository) {
		ctx := context.Background()
		created, err := repo.Create(ctx, "Buy milk", false)
		require.NoError(t, err)

		updated, changes, err := repo.Update(ctx, created.ID, models.TodoPatch{Completed: ptr(true)})
		require.NoError(t, err)
		assert.Equal(t, "Buy milk", updated.Text)
		assert.True(t, updated.Completed)
		assert.Equal(t, created.ID, updated.ID)
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt), "created_at is immutable")
		assert.True(t, changes.Completed)
		assert.False(t, changes.Text)
		assert.Equal(t, "Buy milk", changes.Before.Text)
		assert.False(t, changes.Before.Completed)

		updated, changes, err = repo.Update(ctx, created.ID, models.TodoPatch{Text: ptr(" Buy oat milk ")})
		require.NoError(t, err)
		assert.Equal(t, "Buy oat milk", updated.Text)
		assert.True(t, updated.Completed, "completed retained")
		assert.True(t, changes.Text)
		assert.False(t, changes.Completed)
		assert.Equal(t, "Buy milk", changes.Before.Text)
	})
}

func TestUpdate_UnchangedValuesProduceEmptyDiff(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo TodoRepository) {
		ctx := context.Background()
		created, err := repo.Create(ctx, "Buy milk", true)
		require.NoError(t, err)

		updated, changes, err := repo.Update(ctx, created.ID, models.TodoPatch{Completed: ptr(true)})
		require.NoError(t, err)
		assert.True(t, updated.Completed)
		assert.True(t, changes.Empty())

		// 同じ text で2回更新すると2回目は差分なし
		_, changes, err = repo.Update(ctx, created.ID, models.TodoPatch{Text: ptr("Call mom")})
		require.NoError(t, err)
		assert.True(t, changes.Text)
		updated, changes, err = repo.Update(ctx, created.ID, models.TodoPatch{Text: ptr("Call mom")})
		require.NoError(t, err)
		assert.Equal(t, "Call mom", updated.Text)
		assert.True(t, changes.Empty())
	})
}

func TestDelete(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo TodoRepository) {
		ctx := context.Background()
		keep, err := repo.Create(ctx, "Buy milk", false)
		require.NoError(t, err)
		drop, err := repo.Create(ctx, "Call mom", false)
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, drop.ID)
		require.NoError(t, err)
		assert.Equal(t, *drop, *deleted, "returns the removed record")

		todos, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{keep.ID}, idsOf(todos))

		_, err = repo.Delete(ctx, drop.ID)
		require.ErrorIs(t, err, ErrTodoNotFound)

		todos, err = repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, todos, 1, "state unchanged after failed delete")
	})
}

func TestFindAll_EmptyIsNotNil(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo TodoRepository) {
		todos, err := repo.FindAll(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, todos)
		assert.Empty(t, todos)
	})
}

func TestFindAll_OrderSurvivesMutation(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo TodoRepository) {
		ctx := context.Background()
		var ids []int64
		for _, text := range []string{"one", "two", "three"} {
			created, err := repo.Create(ctx, text, false)
			require.NoError(t, err)
			ids = append(ids, created.ID)
		}
		// 古いタスクを更新しても並び順は変わらない
		_, _, err := repo.Update(ctx, ids[0], models.TodoPatch{Text: ptr("one (edited)"), Completed: ptr(true)})
		require.NoError(t, err)

		todos, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{ids[2], ids[1], ids[0]}, idsOf(todos))
	})
}

func TestPing(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo TodoRepository) {
		assert.NoError(t, repo.Ping(context.Background()))
	})
}

func TestSQLTodoRepository_ClosedDBIsUnavailable(t *testing.T) {
	db, dialect, err := database.InitDB(context.Background(), config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	repo := NewSQLTodoRepository(db, dialect)
	require.NoError(t, db.Close())

	_, err = repo.FindAll(context.Background())
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.ErrorIs(t, repo.Ping(context.Background()), ErrStoreUnavailable)
}

func TestMemoryTodoRepository_Seed(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryTodoRepository(DemoTodos(now)...)

	todos, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, todos, 3)
	assert.Equal(t, "Buy groceries", todos[0].Text)
	assert.Equal(t, "Call mom", todos[2].Text)

	created, err := repo.Create(context.Background(), "New task", false)
	require.NoError(t, err)
	assert.Equal(t, int64(4), created.ID, "counter continues after seed")
}

func TestMemoryTodoRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryTodoRepository()
	created, err := repo.Create(context.Background(), "Buy milk", false)
	require.NoError(t, err)

	created.Text = "mutated by caller"
	todos, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", todos[0].Text)

	todos[0].Completed = true
	todos, err = repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.False(t, todos[0].Completed)
}

func TestMemoryTodoRepository_ConcurrentCreates(t *testing.T) {
	repo := NewMemoryTodoRepository()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, "task", false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	todos, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, todos, n)

	seen := make(map[int64]bool, n)
	for _, todo := range todos {
		assert.False(t, seen[todo.ID], "duplicate id %d", todo.ID)
		seen[todo.ID] = true
	}
}
