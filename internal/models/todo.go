// Package modelsはTodoを定義します。
package models

import (
	"time"
)

// MaxTextLength は todos.text カラムの長さ上限です。
const MaxTextLength = 255

// Todo は ToDoタスク1件を表します。ID と CreatedAt はストアが採番します。
type Todo struct {
	ID        int64     `json:"id"`         // 主キー
	Text      string    `json:"text"`       // タスクの本文（空文字不可）
	Completed bool      `json:"completed"`  // 完了状態
	CreatedAt time.Time `json:"created_at"` // 作成日時（一覧の並び順キー）
}

// CreateTodoRequest は POST /todos のリクエストボディです。
type CreateTodoRequest struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// TodoPatch は PUT /todos/:id のリクエストボディです。
// nil のフィールドは更新しません。
type TodoPatch struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// IsEmpty は更新対象のフィールドが1つも無いかを返します。
func (p TodoPatch) IsEmpty() bool {
	return p.Text == nil && p.Completed == nil
}

// TodoChanges は更新で実際に値が変わったフィールドを表します。
// Before は更新直前の行です。
type TodoChanges struct {
	Before    Todo
	Text      bool
	Completed bool
}

// Empty は値の変化が無かったかを返します。
func (c TodoChanges) Empty() bool {
	return !c.Text && !c.Completed
}

// DeleteTodoResponse は DELETE /todos/:id のレスポンスです。
type DeleteTodoResponse struct {
	Message     string `json:"message"`
	DeletedTodo *Todo  `json:"deletedTodo"`
}

// SummaryResponse は POST /todos/summary のレスポンスです。
type SummaryResponse struct {
	Summary string `json:"summary"`
}
