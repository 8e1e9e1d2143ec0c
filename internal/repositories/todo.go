// Package repositories はTodoの永続化を行うリポジトリを提供します。
package repositories

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"go-todo-slack/internal/models"
)

var (
	// ErrValidation は入力値が不正な場合のエラーです。下記の個別エラーはこれをラップします。
	ErrValidation      = errors.New("validation error")
	ErrEmptyText       = fmt.Errorf("%w: todo text is required", ErrValidation)
	ErrTextTooLong     = fmt.Errorf("%w: todo text is too long", ErrValidation)
	ErrNothingToUpdate = fmt.Errorf("%w: nothing to update", ErrValidation)

	// ErrTodoNotFound はTODOが見つからない場合のエラーです。
	ErrTodoNotFound = errors.New("todo not found")

	// ErrStoreUnavailable はストア基盤の障害を表します。
	ErrStoreUnavailable = errors.New("todo store unavailable")
)

// TodoRepository はTodoストアの契約です。SQL版とメモリ版が同じ振る舞いをします。
type TodoRepository interface {
	// FindAll は全件を created_at の降順で返します。
	FindAll(ctx context.Context) ([]*models.Todo, error)
	// Create は新しいTodoを作成し、IDと作成日時を採番します。
	Create(ctx context.Context, text string, completed bool) (*models.Todo, error)
	// Update は指定されたフィールドだけを更新し、更新後の行と実際の差分を返します。
	Update(ctx context.Context, id int64, patch models.TodoPatch) (*models.Todo, models.TodoChanges, error)
	// Delete は行を削除し、削除前の内容を返します。
	Delete(ctx context.Context, id int64) (*models.Todo, error)
	// Ping はストアが利用可能かを確認します。
	Ping(ctx context.Context) error
}

// normalizeText は前後の空白を取り除き、空文字と長さ超過を弾きます。
func normalizeText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyText
	}
	if utf8.RuneCountInString(trimmed) > models.MaxTextLength {
		return "", ErrTextTooLong
	}
	return trimmed, nil
}

// validatePatch は patch を検証し、正規化済みの patch を返します。
func validatePatch(patch models.TodoPatch) (models.TodoPatch, error) {
	if patch.IsEmpty() {
		return patch, ErrNothingToUpdate
	}
	if patch.Text != nil {
		text, err := normalizeText(*patch.Text)
		if err != nil {
			return patch, err
		}
		patch.Text = &text
	}
	return patch, nil
}

// applyPatch は t に patch を適用し、旧値と新値を比較した差分を返します。
func applyPatch(t *models.Todo, patch models.TodoPatch) models.TodoChanges {
	changes := models.TodoChanges{Before: *t}
	if patch.Text != nil {
		changes.Text = t.Text != *patch.Text
		t.Text = *patch.Text
	}
	if patch.Completed != nil {
		changes.Completed = t.Completed != *patch.Completed
		t.Completed = *patch.Completed
	}
	return changes
}

// sortNewestFirst は created_at 降順、同時刻なら id 降順に並べます。
func sortNewestFirst(todos []*models.Todo) {
	slices.SortStableFunc(todos, func(a, b *models.Todo) int {
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

func storeError(op string, err error) error {
	return fmt.Errorf("could not %s: %w: %w", op, ErrStoreUnavailable, err)
}
