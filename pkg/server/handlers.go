package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/sentriq/screend/pkg/batch"
	"github.com/sentriq/screend/pkg/entity"
	"github.com/sentriq/screend/pkg/search"
	"github.com/sentriq/screend/pkg/trace"
)

// handleSearch serves GET /v1/search.
func (s *Server) handleSearch(c fiber.Ctx) error {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		return badRequest(fmt.Errorf("name parameter is required"))
	}

	opts := search.Options{}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return badRequest(fmt.Errorf("limit must be a positive integer, got %q", raw))
		}
		opts.Limit = limit
	}
	if raw := c.Query("minMatch"); raw != "" {
		minMatch, err := strconv.ParseFloat(raw, 64)
		if err != nil || minMatch < 0 || minMatch > 1 {
			return badRequest(fmt.Errorf("minMatch must be in [0,1], got %q", raw))
		}
		opts.MinMatch = minMatch
		opts.MinMatchSet = true
	}
	src, ok := entity.ParseSource(c.Query("source"))
	if !ok {
		return badRequest(fmt.Errorf("unknown source %q", c.Query("source")))
	}
	opts.Source = src
	typ, ok := entity.ParseType(c.Query("type"))
	if !ok {
		return badRequest(fmt.Errorf("unknown type %q", c.Query("type")))
	}
	opts.Type = typ

	var rec *trace.Recorder
	traced := c.Query("trace") == "true"
	if traced {
		rec = trace.New(requestID(c))
	}

	results, err := s.svc.Search(&entity.Query{Name: name, Source: src, Type: typ}, opts, rec)
	if err != nil {
		return err
	}

	resp := SearchResponse{
		Entities:     make([]EntityDTO, 0, len(results)),
		TotalResults: len(results),
		RequestID:    requestID(c),
	}
	for _, r := range results {
		resp.Entities = append(resp.Entities, toEntityDTO(r, traced))
	}
	if traced {
		s.traces.Save(rec)
		resp.Trace = rec.Events()
	}
	return c.JSON(resp)
}

// handleBatch serves POST /v1/search/batch.
func (s *Server) handleBatch(c fiber.Ctx) error {
	var req batch.Request
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(fmt.Errorf("invalid batch body: %w", err))
	}
	resp, err := s.exec.Screen(c.Context(), req, nil)
	if err != nil {
		return err
	}
	return c.JSON(toBatchResponse(resp, requestID(c)))
}

// handleBatchAsync serves POST /v1/search/batch/async.
func (s *Server) handleBatchAsync(c fiber.Ctx) error {
	var req batch.Request
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(fmt.Errorf("invalid batch body: %w", err))
	}
	job, err := s.jobs.Submit(c.Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(JobSubmittedDTO{
		JobID:       job.ID,
		Status:      job.Status,
		ItemCount:   job.ItemCount,
		SubmittedAt: job.SubmittedAt,
	})
}

// handleBatchJobStatus serves GET /v1/search/batch/async/:jobId.
func (s *Server) handleBatchJobStatus(c fiber.Ctx) error {
	job, err := s.jobs.Get(c.Params("jobId"))
	if err != nil {
		return err
	}
	return c.JSON(toJobStatus(job, requestID(c)))
}

// handleBatchJobCancel serves DELETE /v1/search/batch/async/:jobId.
func (s *Server) handleBatchJobCancel(c fiber.Ctx) error {
	job, err := s.jobs.Cancel(c.Params("jobId"))
	if err != nil {
		return err
	}
	return c.JSON(toJobStatus(job, requestID(c)))
}

// handleBatchConfig serves GET /v1/search/batch/config.
func (s *Server) handleBatchConfig(c fiber.Ctx) error {
	cfg := s.store.Snapshot()
	sources := make([]string, 0, len(entity.AllSources()))
	for _, src := range entity.AllSources() {
		sources = append(sources, src.String())
	}
	types := make([]string, 0, len(entity.AllTypes()))
	for _, t := range entity.AllTypes() {
		types = append(types, t.String())
	}
	return c.JSON(BatchConfigDTO{
		MaxBatchSize:     s.exec.MaxBatchSize(),
		DefaultMinMatch:  cfg.Weights.MinimumScore,
		DefaultLimit:     search.DefaultLimit,
		SupportedSources: sources,
		SupportedTypes:   types,
	})
}

// handleListInfo serves GET /v1/listinfo.
func (s *Server) handleListInfo(c fiber.Ctx) error {
	snap := s.idx.Snapshot()
	status := s.refresher.Status()

	info := ListInfoDTO{}
	for _, src := range status.Sources {
		info.Sources = append(info.Sources, SourceInfoDTO{
			Name:        src.Name,
			Source:      src.Source.String(),
			EntityCount: snap.SourceCount(src.Source),
			LastUpdated: src.LastUpdated,
		})
		if src.LastUpdated.After(info.LastUpdated) {
			info.LastUpdated = src.LastUpdated
		}
	}
	return c.JSON(info)
}

// handleRefresh serves POST /v1/download/refresh.
func (s *Server) handleRefresh(c fiber.Ctx) error {
	if err := s.refresher.StartAsync(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":    "REFRESHING",
		"startedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleRefreshStatus serves GET /v1/download/status.
func (s *Server) handleRefreshStatus(c fiber.Ctx) error {
	return c.JSON(s.refresher.Status())
}

// handleTrace serves GET /v1/trace/:requestId.
func (s *Server) handleTrace(c fiber.Ctx) error {
	report, ok := s.traces.Get(c.Params("requestId"))
	if !ok {
		return &apiError{
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
			err:    fmt.Errorf("no trace for request %q", c.Params("requestId")),
		}
	}
	return c.JSON(report)
}

// handleHealth serves GET /health. The service is "starting" until the
// first refresh populates the index.
func (s *Server) handleHealth(c fiber.Ctx) error {
	count := s.idx.Len()
	status := "healthy"
	if count == 0 {
		status = "starting"
	}
	return c.JSON(HealthDTO{Status: status, EntityCount: count})
}
