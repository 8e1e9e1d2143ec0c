package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-todo-slack/internal/models"
	"go-todo-slack/internal/repositories"
	"go-todo-slack/internal/services"
	"go-todo-slack/testutil"
)

func ptr[T any](v T) *T { return &v }

func newTodoService(t *testing.T) (*services.TodoService, *testutil.RecordingNotifier) {
	t.Helper()
	rec := &testutil.RecordingNotifier{}
	return services.NewTodoService(repositories.NewMemoryTodoRepository(), rec), rec
}

func TestTodoService_CreateNotifies(t *testing.T) {
	svc, rec := newTodoService(t)

	todo, err := svc.CreateTodo(context.Background(), models.CreateTodoRequest{Text: "Buy milk"})
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", todo.Text)
	assert.Equal(t, []string{`🎉 New Todo Added: "Buy milk"`}, rec.Messages())
}

func TestTodoService_CreateInvalidDoesNotNotify(t *testing.T) {
	svc, rec := newTodoService(t)

	_, err := svc.CreateTodo(context.Background(), models.CreateTodoRequest{Text: "   "})
	require.ErrorIs(t, err, repositories.ErrEmptyText)
	assert.Empty(t, rec.Messages())
}

func TestTodoService_UpdateMessages(t *testing.T) {
	ctx := context.Background()
	svc, rec := newTodoService(t)
	todo, err := svc.CreateTodo(ctx, models.CreateTodoRequest{Text: "Buy milk"})
	require.NoError(t, err)
	rec.Reset()

	_, err = svc.UpdateTodo(ctx, todo.ID, models.TodoPatch{Completed: ptr(true)})
	require.NoError(t, err)
	_, err = svc.UpdateTodo(ctx, todo.ID, models.TodoPatch{Text: ptr("Buy oat milk"), Completed: ptr(false)})
	require.NoError(t, err)

	assert.Equal(t, []string{
		`🔔 Todo Updated: "Buy milk" - marked as complete.`,
		`🔔 Todo Updated: "Buy milk" - text updated to "Buy oat milk", marked as incomplete.`,
	}, rec.Messages())
}

func TestTodoService_UpdateWithoutChangeIsSilent(t *testing.T) {
	ctx := context.Background()
	svc, rec := newTodoService(t)
	todo, err := svc.CreateTodo(ctx, models.CreateTodoRequest{Text: "Buy milk", Completed: true})
	require.NoError(t, err)
	rec.Reset()

	updated, err := svc.UpdateTodo(ctx, todo.ID, models.TodoPatch{Text: ptr("Buy milk"), Completed: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, *todo, *updated)
	assert.Empty(t, rec.Messages())
}

func TestTodoService_UpdateErrors(t *testing.T) {
	ctx := context.Background()
	svc, rec := newTodoService(t)

	_, err := svc.UpdateTodo(ctx, 42, models.TodoPatch{Completed: ptr(true)})
	require.ErrorIs(t, err, repositories.ErrTodoNotFound)
	_, err = svc.UpdateTodo(ctx, 42, models.TodoPatch{})
	require.ErrorIs(t, err, repositories.ErrNothingToUpdate)
	assert.Empty(t, rec.Messages())
}

func TestTodoService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, rec := newTodoService(t)
	todo, err := svc.CreateTodo(ctx, models.CreateTodoRequest{Text: "Call mom"})
	require.NoError(t, err)
	rec.Reset()

	deleted, err := svc.DeleteTodo(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, todo.ID, deleted.ID)
	assert.Equal(t, []string{`🗑️ Todo Deleted: "Call mom"`}, rec.Messages())

	_, err = svc.DeleteTodo(ctx, todo.ID)
	require.ErrorIs(t, err, repositories.ErrTodoNotFound)
	assert.Len(t, rec.Messages(), 1)

	todos, err := svc.GetTodos(ctx)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestTodoService_NilNotifier(t *testing.T) {
	svc := services.NewTodoService(repositories.NewMemoryTodoRepository(), nil)
	_, err := svc.CreateTodo(context.Background(), models.CreateTodoRequest{Text: "Buy milk"})
	assert.NoError(t, err)
}
