package repositories

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"go-todo-slack/internal/database"
	"go-todo-slack/internal/models"
)

const selectTodoColumns = "SELECT id, text, completed, created_at FROM todos"

// SQLTodoRepository はリレーショナルDBに永続化する TodoRepository です。
type SQLTodoRepository struct {
	DB      *sql.DB
	dialect database.Dialect
}

var _ TodoRepository = (*SQLTodoRepository)(nil)

// NewSQLTodoRepository は新しいSQLTodoRepositoryインスタンスを作成します。
func NewSQLTodoRepository(db *sql.DB, dialect database.Dialect) *SQLTodoRepository {
	return &SQLTodoRepository{DB: db, dialect: dialect}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	var t models.Todo
	if err := row.Scan(&t.ID, &t.Text, &t.Completed, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// FindAll はすべてのTodoタスクを新しい順に取得します。
func (r *SQLTodoRepository) FindAll(ctx context.Context) ([]*models.Todo, error) {
	rows, err := r.DB.QueryContext(ctx, selectTodoColumns+" ORDER BY created_at DESC, id DESC")
	if err != nil {
		log.Printf("Failed to query todos: %v", err)
		return nil, storeError("query todos", err)
	}
	defer rows.Close()

	todos := make([]*models.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			log.Printf("Failed to scan todo: %v", err)
			return nil, storeError("scan todo", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate todos", err)
	}
	return todos, nil
}

// FindByID は指定されたIDのTodoタスクを取得します。
func (r *SQLTodoRepository) FindByID(ctx context.Context, id int64) (*models.Todo, error) {
	t, err := scanTodo(r.DB.QueryRowContext(ctx, r.dialect.Rebind(selectTodoColumns+" WHERE id = ?"), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		log.Printf("Failed to query todo by ID: %v", err)
		return nil, storeError("query todo", err)
	}
	return t, nil
}

// Create は新しいTodoタスクを挿入します。id と created_at はDB側で採番されます。
func (r *SQLTodoRepository) Create(ctx context.Context, text string, completed bool) (*models.Todo, error) {
	text, err := normalizeText(text)
	if err != nil {
		return nil, err
	}

	if r.dialect.SupportsReturning() {
		query := r.dialect.Rebind("INSERT INTO todos (text, completed) VALUES (?, ?) RETURNING id, text, completed, created_at")
		t, err := scanTodo(r.DB.QueryRowContext(ctx, query, text, completed))
		if err != nil {
			log.Printf("Failed to insert todo: %v", err)
			return nil, storeError("insert todo", err)
		}
		return t, nil
	}

	result, err := r.DB.ExecContext(ctx, "INSERT INTO todos (text, completed) VALUES (?, ?)", text, completed)
	if err != nil {
		log.Printf("Failed to insert todo: %v", err)
		return nil, storeError("insert todo", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, storeError("get last insert ID", err)
	}
	return r.FindByID(ctx, id)
}

// Update は指定されたIDのTodoタスクを更新します。
// 旧値の読み取りと書き込みは同じトランザクション内で行うので、差分は常に実際の変更を表します。
func (r *SQLTodoRepository) Update(ctx context.Context, id int64, patch models.TodoPatch) (*models.Todo, models.TodoChanges, error) {
	patch, err := validatePatch(patch)
	if err != nil {
		return nil, models.TodoChanges{}, err
	}

	var (
		updated *models.Todo
		changes models.TodoChanges
	)
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		current, err := r.lockRow(ctx, tx, id)
		if err != nil {
			return err
		}
		changes = applyPatch(current, patch)
		updated = current

		query := r.dialect.Rebind("UPDATE todos SET text = ?, completed = ? WHERE id = ?")
		if _, err := tx.ExecContext(ctx, query, current.Text, current.Completed, id); err != nil {
			log.Printf("Failed to update todo: %v", err)
			return storeError("update todo", err)
		}
		return nil
	})
	if err != nil {
		return nil, models.TodoChanges{}, err
	}
	return updated, changes, nil
}

// Delete は指定されたIDのTodoタスクを削除し、削除した行を返します。
func (r *SQLTodoRepository) Delete(ctx context.Context, id int64) (*models.Todo, error) {
	var deleted *models.Todo
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		current, err := r.lockRow(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, r.dialect.Rebind("DELETE FROM todos WHERE id = ?"), id); err != nil {
			log.Printf("Failed to delete todo: %v", err)
			return storeError("delete todo", err)
		}
		deleted = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// Ping はデータベース接続の健全性を確認します。
func (r *SQLTodoRepository) Ping(ctx context.Context) error {
	if err := r.DB.PingContext(ctx); err != nil {
		return storeError("ping database", err)
	}
	return nil
}

func (r *SQLTodoRepository) lockRow(ctx context.Context, tx *sql.Tx, id int64) (*models.Todo, error) {
	query := r.dialect.Rebind(selectTodoColumns + " WHERE id = ?" + r.dialect.LockClause())
	t, err := scanTodo(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		log.Printf("Failed to lock todo %d: %v", id, err)
		return nil, storeError("query todo", err)
	}
	return t, nil
}

func (r *SQLTodoRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin transaction", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Printf("Failed to rollback transaction: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeError("commit transaction", err)
	}
	return nil
}
