// Package server is the HTTP surface: a thin DTO translation around the
// screening core. Routes, middleware, and the error envelope live here; all
// matching semantics stay in the core packages.
package server

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/sentriq/screend/pkg/batch"
	"github.com/sentriq/screend/pkg/config"
	"github.com/sentriq/screend/pkg/feeds"
	"github.com/sentriq/screend/pkg/index"
	"github.com/sentriq/screend/pkg/ratelimit"
	"github.com/sentriq/screend/pkg/search"
	"github.com/sentriq/screend/pkg/trace"
)

// Server bundles the core collaborators behind the fiber app.
type Server struct {
	store     *config.Store
	idx       *index.Index
	svc       *search.Service
	exec      *batch.Executor
	jobs      *batch.JobStore
	refresher *feeds.Refresher
	traces    *trace.Store
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
}

// Deps are the collaborators the server needs. Limiter may be nil.
type Deps struct {
	Store     *config.Store
	Index     *index.Index
	Search    *search.Service
	Executor  *batch.Executor
	Jobs      *batch.JobStore
	Refresher *feeds.Refresher
	Traces    *trace.Store
	Limiter   *ratelimit.Limiter
	Logger    *slog.Logger

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New builds the fiber app with every route mounted.
func New(deps Deps) (*Server, *fiber.App) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:     deps.Store,
		idx:       deps.Index,
		svc:       deps.Search,
		exec:      deps.Executor,
		jobs:      deps.Jobs,
		refresher: deps.Refresher,
		traces:    deps.Traces,
		limiter:   deps.Limiter,
		logger:    logger,
	}

	app := fiber.New(fiber.Config{
		AppName:      "screend",
		ErrorHandler: s.errorHandler,
		ReadTimeout:  deps.ReadTimeout,
		WriteTimeout: deps.WriteTimeout,
	})

	app.Use(requestIDMiddleware)
	app.Use(recoverMiddleware)
	app.Use(s.requestLogger)

	app.Get("/health", s.handleHealth)

	v1 := app.Group("/v1", negotiateJSON)
	if s.limiter != nil {
		v1.Use(s.rateLimitMiddleware)
	}
	v1.Get("/search", s.handleSearch)
	v1.Post("/search/batch", s.handleBatch)
	v1.Get("/search/batch/config", s.handleBatchConfig)
	v1.Post("/search/batch/async", s.handleBatchAsync)
	v1.Get("/search/batch/async/:jobId", s.handleBatchJobStatus)
	v1.Delete("/search/batch/async/:jobId", s.handleBatchJobCancel)
	v1.Get("/listinfo", s.handleListInfo)
	v1.Post("/download/refresh", s.handleRefresh)
	v1.Get("/download/status", s.handleRefreshStatus)
	v1.Get("/trace/:requestId", s.handleTrace)

	admin := app.Group("/admin", negotiateJSON)
	admin.Get("/config", s.handleGetConfig)
	admin.Put("/config/similarity", s.handlePutSimilarity)
	admin.Put("/config/weights", s.handlePutWeights)
	admin.Post("/config/reset", s.handleResetConfig)

	return s, app
}
