// Package server exposes the engine's operations as a JSON API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"momentum-cli/internal/model"
	"momentum-cli/internal/mutate"
	"momentum-cli/internal/timeline"

	"github.com/gin-gonic/gin"
)

type Server struct {
	Stores mutate.Stores
	Logger *slog.Logger

	// TimelineLimit is used when a timeline request carries no limit.
	TimelineLimit int
}

func New(st mutate.Stores, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Stores: st, Logger: logger, TimelineLimit: timeline.DefaultLimit}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/progress", s.getProgress)
	api.GET("/spaces", s.listSpaces)
	api.POST("/spaces", s.createSpace)

	sp := api.Group("/spaces/:space")
	sp.POST("/actions", s.createAction)
	sp.GET("/actions", s.listActions)
	sp.POST("/completions", s.recordCompletion)
	sp.POST("/data-entries", s.submitDataEntry)
	sp.GET("/data-entries", s.listDataEntries)
	sp.GET("/timeline", s.getTimeline)

	api.GET("/actions/:id", s.getAction)
	api.PATCH("/actions/:id", s.updateAction)
	api.DELETE("/actions/:id", s.deleteAction)
	api.PUT("/data-entries/:id", s.updateDataEntry)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody("not_found", "route not found: "+c.Request.URL.Path))
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func errorBody(code, message string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": message}}
}

func statusFor(code string) int {
	switch code {
	case "not_found":
		return http.StatusNotFound
	case "disabled":
		return http.StatusConflict
	case "invalid_input":
		return http.StatusBadRequest
	case "validation":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	code := mutate.Code(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		s.Logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, errorBody(code, err.Error()))
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

// bind decodes the JSON body; a malformed body is the caller's fault.
func bind(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return mutate.InvalidInputError{Reason: "request body: " + err.Error()}
	}
	return nil
}

func (s *Server) space(c *gin.Context) (model.Space, bool) {
	sp, err := mutate.ResolveSpace(c.Request.Context(), s.Stores, c.Param("space"))
	if err != nil {
		s.fail(c, err)
		return model.Space{}, false
	}
	return sp, true
}

func (s *Server) getProgress(c *gin.Context) {
	p, err := s.Stores.Progress.Get(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, s.Stores.Progress.Snapshot(p))
}

func (s *Server) listSpaces(c *gin.Context) {
	spaces, err := mutate.ListSpaces(c.Request.Context(), s.Stores)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, spaces)
}

func (s *Server) createSpace(c *gin.Context) {
	var in struct {
		Name string `json:"name"`
	}
	if err := bind(c, &in); err != nil {
		s.fail(c, err)
		return
	}
	sp, err := mutate.CreateSpace(c.Request.Context(), s.Stores, in.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, sp)
}

func (s *Server) createAction(c *gin.Context) {
	sp, found := s.space(c)
	if !found {
		return
	}
	var in mutate.CreateActionInput
	if err := bind(c, &in); err != nil {
		s.fail(c, err)
		return
	}
	in.SpaceID = sp.ID
	def, err := mutate.CreateAction(c.Request.Context(), s.Stores, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, def)
}

func (s *Server) listActions(c *gin.Context) {
	sp, found := s.space(c)
	if !found {
		return
	}
	defs, err := mutate.ListActions(c.Request.Context(), s.Stores, sp.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, defs)
}

func (s *Server) getAction(c *gin.Context) {
	id := c.Param("id")
	def, found, err := s.Stores.Actions.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !found {
		s.fail(c, mutate.NotFoundError{Kind: "action", ID: id})
		return
	}
	logs, err := mutate.ListActionLogs(c.Request.Context(), s.Stores, def.SpaceID, def.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"action": def, "checklist": mutate.ChecklistState(def, logs)})
}

func (s *Server) updateAction(c *gin.Context) {
	var in mutate.UpdateActionInput
	if err := bind(c, &in); err != nil {
		s.fail(c, err)
		return
	}
	in.ID = c.Param("id")
	def, err := mutate.UpdateAction(c.Request.Context(), s.Stores, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, def)
}

func (s *Server) deleteAction(c *gin.Context) {
	res, err := mutate.DeleteAction(c.Request.Context(), s.Stores, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

func (s *Server) recordCompletion(c *gin.Context) {
	sp, found := s.space(c)
	if !found {
		return
	}
	var in mutate.RecordCompletionInput
	if err := bind(c, &in); err != nil {
		s.fail(c, err)
		return
	}
	in.SpaceID = sp.ID
	res, err := mutate.RecordCompletion(c.Request.Context(), s.Stores, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, res)
}

func (s *Server) submitDataEntry(c *gin.Context) {
	sp, found := s.space(c)
	if !found {
		return
	}
	var in mutate.SubmitDataEntryInput
	if err := bind(c, &in); err != nil {
		s.fail(c, err)
		return
	}
	in.SpaceID = sp.ID
	res, err := mutate.SubmitDataEntry(c.Request.Context(), s.Stores, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, res)
}

func (s *Server) listDataEntries(c *gin.Context) {
	sp, found := s.space(c)
	if !found {
		return
	}
	entries, err := mutate.ListDataEntries(c.Request.Context(), s.Stores, sp.ID, c.Query("action"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, entries)
}

func (s *Server) updateDataEntry(c *gin.Context) {
	var in struct {
		FormData map[string]any `json:"formData"`
	}
	if err := bind(c, &in); err != nil {
		s.fail(c, err)
		return
	}
	entry, err := mutate.UpdateDataEntry(c.Request.Context(), s.Stores, c.Param("id"), in.FormData)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, entry)
}

func (s *Server) getTimeline(c *gin.Context) {
	sp, found := s.space(c)
	if !found {
		return
	}
	opts := timeline.Options{Limit: s.TimelineLimit}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.fail(c, mutate.InvalidInputError{Reason: "limit must be an integer"})
			return
		}
		opts.Limit = n
	}
	for _, k := range c.QueryArray("kind") {
		opts.Kinds = append(opts.Kinds, model.TimelineKind(strings.TrimSpace(k)))
	}
	items, err := mutate.Timeline(c.Request.Context(), s.Stores, sp.ID, opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}
