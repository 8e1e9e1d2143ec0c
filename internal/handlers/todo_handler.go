package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"go-todo-slack/internal/models"
	"go-todo-slack/internal/repositories"
	"go-todo-slack/internal/services"
)

// TodoHandler はTodo関連のハンドラーを管理します。
type TodoHandler struct {
	todoService    *services.TodoService
	summaryService *services.SummaryService
}

// NewTodoHandler は新しいTodoHandlerを作成します。
func NewTodoHandler(todoService *services.TodoService, summaryService *services.SummaryService) *TodoHandler {
	return &TodoHandler{todoService: todoService, summaryService: summaryService}
}

// GetTodosHandler はTodoリストを新しい順に返します。
func (h *TodoHandler) GetTodosHandler(c *gin.Context) {
	todos, err := h.todoService.GetTodos(c.Request.Context())
	if err != nil {
		respondError(c, "fetching todos", err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

// CreateTodoHandler は新しいTodoを作成します。
func (h *TodoHandler) CreateTodoHandler(c *gin.Context) {
	var req models.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	createdTodo, err := h.todoService.CreateTodo(c.Request.Context(), req)
	if err != nil {
		respondError(c, "creating todo", err)
		return
	}
	c.JSON(http.StatusCreated, createdTodo)
}

// UpdateTodoHandler は指定されたフィールドだけTodoを更新します。
func (h *TodoHandler) UpdateTodoHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var patch models.TodoPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	updatedTodo, err := h.todoService.UpdateTodo(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, "updating todo", err)
		return
	}
	c.JSON(http.StatusOK, updatedTodo)
}

// DeleteTodoHandler はTodoを削除し、削除したTodoを返します。
func (h *TodoHandler) DeleteTodoHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	deletedTodo, err := h.todoService.DeleteTodo(c.Request.Context(), id)
	if err != nil {
		respondError(c, "deleting todo", err)
		return
	}
	c.JSON(http.StatusOK, models.DeleteTodoResponse{
		Message:     "Todo deleted successfully",
		DeletedTodo: deletedTodo,
	})
}

// SummaryHandler はTodo一覧の要約を返します。
func (h *TodoHandler) SummaryHandler(c *gin.Context) {
	summary, err := h.summaryService.SummarizeAll(c.Request.Context())
	if err != nil {
		respondError(c, "generating todo summary", err)
		return
	}
	c.JSON(http.StatusOK, models.SummaryResponse{Summary: summary})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return 0, false
	}
	return id, true
}

// respondError はエラーをステータスコードと短いメッセージに変換します。
// 詳細はログにだけ残します。
func respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, repositories.ErrEmptyText):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Todo text is required"})
	case errors.Is(err, repositories.ErrTextTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Todo text is too long"})
	case errors.Is(err, repositories.ErrNothingToUpdate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
	case errors.Is(err, repositories.ErrTodoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
	case errors.Is(err, services.ErrSummaryUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "OpenAI service is not available. Please check API key."})
	case errors.Is(err, services.ErrSummaryGeneration):
		log.Printf("Error %s: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate summary"})
	default:
		log.Printf("Error %s: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	}
}
