package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nik-ti/image-finder/internal/domain/entity"
	"github.com/nik-ti/image-finder/internal/usecase"
)

type FindHandler struct {
	orchestrator *usecase.Orchestrator
}

func NewFindHandler(orch *usecase.Orchestrator) *FindHandler {
	return &FindHandler{orchestrator: orch}
}

// HandleFind resolves the best image for a news item. Every valid request
// gets a structurally valid result; 500 is reserved for the one fatal case
// where even the default fallback asset is unreachable.
func (h *FindHandler) HandleFind(c *fiber.Ctx) error {
	var req entity.FindRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": entity.ErrInvalidRequest.Error()})
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Research) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title and research are required"})
	}

	result, err := h.orchestrator.Find(c.Context(), req)
	if err != nil {
		if errors.Is(err, entity.ErrFallbackUnreachable) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal image finder error"})
	}

	c.Set("X-Image-Cache-Hit", "false")
	if result.Cached {
		c.Set("X-Image-Cache-Hit", "true")
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
