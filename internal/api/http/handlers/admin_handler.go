package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/forum-relay/internal/api/dto"
	"github.com/spec-kit/forum-relay/internal/events"
	"github.com/spec-kit/forum-relay/internal/observability"
	"github.com/spec-kit/forum-relay/internal/repository"
	apperrors "github.com/spec-kit/forum-relay/pkg/util/errorutil"
)

// AdminHandler exposes operator endpoints.
type AdminHandler struct {
	threads repository.ThreadRepository
	queue   *events.Queue
	metrics *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(threads repository.ThreadRepository, queue *events.Queue, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{threads: threads, queue: queue, metrics: metrics}
}

// Thread GET /admin/threads/:itemName.
func (h *AdminHandler) Thread(c *fiber.Ctx) error {
	itemName, err := url.PathUnescape(c.Params("itemName"))
	if err != nil || itemName == "" {
		return apperrors.NewValidationError("invalid item name", nil)
	}
	threadID, ok, err := h.threads.Get(c.UserContext(), itemName)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !ok {
		return apperrors.NewNotFound("thread", map[string]any{"item_name": itemName})
	}
	return c.JSON(fiber.Map{"data": dto.ThreadLookupResponse{ItemName: itemName, ThreadID: threadID}})
}

// Stats GET /admin/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	snapshot := h.metrics.Snapshot()
	return c.JSON(fiber.Map{"data": dto.StatsResponse{
		QueueDepth: h.queue.Len(),
		Requests:   snapshot.Requests,
		Errors:     snapshot.Errors,
		Events:     snapshot.Events,
	}})
}
