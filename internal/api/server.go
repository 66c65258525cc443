// Package api exposes the planner over a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"todo-planner/internal/service"
)

// Server is the planner's HTTP front-end.
type Server struct {
	todos     *service.TodoService
	schedule  *service.ScheduleService
	reminders *service.ReminderService
	loc       *time.Location
	log       *slog.Logger
	now       func() time.Time
	router    *gin.Engine
}

func NewServer(todos *service.TodoService, schedule *service.ScheduleService, reminders *service.ReminderService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))

	s := &Server{
		todos:     todos,
		schedule:  schedule,
		reminders: reminders,
		loc:       schedule.Engine().Location(),
		log:       log,
		now:       time.Now,
		router:    router,
	}

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	user := router.Group("/api/users/:userID", s.requireUser)
	{
		user.GET("/todos", s.handleListTodos)
		user.POST("/todos", s.handleCreateTodo)
		user.GET("/todos/:todoID", s.handleGetTodo)
		user.DELETE("/todos/:todoID", s.handleDeleteTodo)
		user.PATCH("/todos/:todoID/completion", s.handleCompleteTodo)
		user.PUT("/todos/:todoID/occurrences/:date", s.handleUpdateOccurrence)
		user.GET("/todos/:todoID/completions", s.handleTodoCompletions)

		user.GET("/occurrences", s.handleOccurrences)
		user.GET("/analytics", s.handleAnalytics)
		user.GET("/reminders", s.handleDueReminders)
		user.GET("/export.ics", s.handleExport)
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.log.Info("http server stopped")
		return nil
	}
}
