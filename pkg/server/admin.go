package server

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
)

// handleGetConfig serves GET /admin/config: the live similarity and weight
// knobs as one document.
func (s *Server) handleGetConfig(c fiber.Ctx) error {
	return c.JSON(s.store.Snapshot())
}

// handlePutSimilarity serves PUT /admin/config/similarity. The update is
// validated against the live weights and applied as one atomic swap.
func (s *Server) handlePutSimilarity(c fiber.Ctx) error {
	// Start from the live values so a partial body only changes the fields
	// it names.
	sim := s.store.Snapshot().Similarity
	if err := c.Bind().Body(&sim); err != nil {
		return badRequest(fmt.Errorf("invalid similarity config: %w", err))
	}
	if err := s.store.UpdateSimilarity(sim); err != nil {
		return badRequest(err)
	}
	s.logger.Info("similarity config updated", "requestId", requestID(c))
	return c.JSON(s.store.Snapshot().Similarity)
}

// handlePutWeights serves PUT /admin/config/weights.
func (s *Server) handlePutWeights(c fiber.Ctx) error {
	w := s.store.Snapshot().Weights
	if err := c.Bind().Body(&w); err != nil {
		return badRequest(fmt.Errorf("invalid weight config: %w", err))
	}
	if err := s.store.UpdateWeights(w); err != nil {
		return badRequest(err)
	}
	s.logger.Info("weight config updated", "requestId", requestID(c))
	return c.JSON(s.store.Snapshot().Weights)
}

// handleResetConfig serves POST /admin/config/reset.
func (s *Server) handleResetConfig(c fiber.Ctx) error {
	s.store.Reset()
	s.logger.Info("scoring config reset to defaults", "requestId", requestID(c))
	return c.JSON(s.store.Snapshot())
}
