package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"todo-planner/internal/export"
	"todo-planner/internal/model"
	"todo-planner/internal/recurrence"
	"todo-planner/internal/service"
)

const (
	userIDKey        = "userID"
	defaultRangeDays = 30
)

// CreateTodoRequest is the body of POST /todos.
type CreateTodoRequest struct {
	Text       string                   `json:"text" binding:"required"`
	Folder     string                   `json:"folder"`
	DueDate    string                   `json:"dueDate"`
	ReminderAt *time.Time               `json:"reminderAt"`
	Recurrence *model.RecurrencePattern `json:"recurringPattern"`
}

// CompletionRequest is the body of the completion endpoints. From and To,
// when both set, select the analytics range returned with the update.
type CompletionRequest struct {
	Completed *bool  `json:"completed" binding:"required"`
	From      string `json:"from"`
	To        string `json:"to"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requireUser parses :userID once for every user-scoped route.
func (s *Server) requireUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("userID"), 10, 32)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	c.Set(userIDKey, uint(id))
	c.Next()
}

func userID(c *gin.Context) uint {
	return c.GetUint(userIDKey)
}

// GET /api/users/:userID/todos
func (s *Server) handleListTodos(c *gin.Context) {
	todos, err := s.todos.List(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	c.JSON(http.StatusOK, gin.H{"todos": todos, "total": len(todos)})
}

// POST /api/users/:userID/todos
func (s *Server) handleCreateTodo(c *gin.Context) {
	var req CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.TodoInput{
		Text:       req.Text,
		Folder:     req.Folder,
		ReminderAt: req.ReminderAt,
		Recurrence: req.Recurrence,
	}
	if req.DueDate != "" {
		due, err := recurrence.ParseDate(req.DueDate, s.loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input.DueDate = &due
	}

	todo, err := s.todos.Create(c.Request.Context(), userID(c), input)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, todo)
}

// GET /api/users/:userID/todos/:todoID
func (s *Server) handleGetTodo(c *gin.Context) {
	todo, err := s.todos.Get(c.Request.Context(), userID(c), c.Param("todoID"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// DELETE /api/users/:userID/todos/:todoID
func (s *Server) handleDeleteTodo(c *gin.Context) {
	if err := s.todos.Delete(c.Request.Context(), userID(c), c.Param("todoID")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PATCH /api/users/:userID/todos/:todoID/completion
func (s *Server) handleCompleteTodo(c *gin.Context) {
	var req CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	todo, err := s.todos.SetCompleted(c.Request.Context(), userID(c), c.Param("todoID"), *req.Completed, s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// GET /api/users/:userID/todos/:todoID/completions
func (s *Server) handleTodoCompletions(c *gin.Context) {
	records, err := s.schedule.History(c.Request.Context(), userID(c), c.Param("todoID"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if records == nil {
		records = []model.CompletionRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"completions": records, "count": len(records)})
}

// PUT /api/users/:userID/todos/:todoID/occurrences/:date
func (s *Server) handleUpdateOccurrence(c *gin.Context) {
	var req CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upd := service.CompletionUpdate{
		UserID:    userID(c),
		TodoID:    c.Param("todoID"),
		Date:      c.Param("date"),
		Completed: *req.Completed,
	}
	if req.From != "" || req.To != "" {
		r, err := s.parseRange(req.From, req.To)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		upd.Range = &r
	}

	result, err := s.schedule.UpdatePastCompletion(c.Request.Context(), upd)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /api/users/:userID/occurrences?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *Server) handleOccurrences(c *gin.Context) {
	r, err := s.parseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	occs, err := s.schedule.Occurrences(c.Request.Context(), userID(c), r)
	if err != nil {
		s.fail(c, err)
		return
	}
	if occs == nil {
		occs = []model.Occurrence{}
	}
	c.JSON(http.StatusOK, gin.H{
		"from":        recurrence.FormatDay(r.Start, s.loc),
		"to":          recurrence.FormatDay(r.End, s.loc),
		"occurrences": occs,
		"count":       len(occs),
	})
}

// GET /api/users/:userID/analytics?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *Server) handleAnalytics(c *gin.Context) {
	r, err := s.parseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := s.schedule.Analytics(c.Request.Context(), userID(c), r)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// GET /api/users/:userID/reminders?at=RFC3339
func (s *Server) handleDueReminders(c *gin.Context) {
	at := s.now()
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at must be an RFC 3339 timestamp"})
			return
		}
		at = parsed
	}
	due, err := s.reminders.DueReminders(c.Request.Context(), userID(c), at)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"at": at, "due": due, "count": len(due)})
}

// GET /api/users/:userID/export.ics
func (s *Server) handleExport(c *gin.Context) {
	todos, err := s.todos.List(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	data, err := export.Marshal(todos, s.now(), s.loc)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="todos.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// parseRange reads an inclusive day range. A missing end is today and a
// missing start is defaultRangeDays before the end.
func (s *Server) parseRange(from, to string) (service.DateRange, error) {
	end := recurrence.DayOf(s.now(), s.loc)
	if to != "" {
		parsed, err := recurrence.ParseDate(to, s.loc)
		if err != nil {
			return service.DateRange{}, fmt.Errorf("to: %w", err)
		}
		end = parsed
	}
	start := recurrence.AddDays(end, -(defaultRangeDays - 1), s.loc)
	if from != "" {
		parsed, err := recurrence.ParseDate(from, s.loc)
		if err != nil {
			return service.DateRange{}, fmt.Errorf("from: %w", err)
		}
		start = parsed
	}
	if start.After(end) {
		return service.DateRange{}, errors.New("from must not be after to")
	}
	return service.DateRange{Start: start, End: end}, nil
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTodoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "todo not found"})
	case errors.Is(err, service.ErrRecurringTodo):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
