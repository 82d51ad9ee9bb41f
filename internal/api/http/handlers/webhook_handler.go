package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/forum-relay/internal/api/dto"
	"github.com/spec-kit/forum-relay/internal/auth"
	"github.com/spec-kit/forum-relay/internal/domain"
	"github.com/spec-kit/forum-relay/internal/events"
	apperrors "github.com/spec-kit/forum-relay/pkg/util/errorutil"
)

// DeliveryHeader carries GitHub's unique id of a webhook delivery.
const DeliveryHeader = "X-GitHub-Delivery"

// EventClassifier turns a raw webhook body into a project item event.
type EventClassifier interface {
	Classify(ctx context.Context, body []byte) (domain.ProjectItemEvent, error)
}

// WebhookHandler receives project item webhooks and queues them for the bot.
type WebhookHandler struct {
	verifier   *auth.SignatureVerifier
	classifier EventClassifier
	queue      *events.Queue
	logger     *zap.Logger
}

// NewWebhookHandler constructs handler.
func NewWebhookHandler(verifier *auth.SignatureVerifier, classifier EventClassifier, queue *events.Queue, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, classifier: classifier, queue: queue, logger: logger}
}

// Receive POST /webhook_endpoint.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return apperrors.NewValidationError("Missing request body.", nil)
	}

	signature := c.Get(auth.SignatureHeader)
	if err := h.verifier.Verify(body, signature); err != nil {
		if errors.Is(err, auth.ErrMissingSignature) {
			return apperrors.NewUnauthorized("Missing signature.")
		}
		return apperrors.NewUnauthorized("Invalid signature.")
	}
	if !h.verifier.Enabled() {
		h.logger.Warn("no webhook secret set; skipping signature verification",
			zap.Bool("signature_present", signature != ""))
	}

	event, err := h.classifier.Classify(c.UserContext(), body)
	if err != nil {
		return err
	}

	// Header values alias fiber's request buffer, which is reused after the handler returns.
	deliveryID := utils.CopyString(c.Get(DeliveryHeader))
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}
	if err := h.queue.Push(events.NewEnvelope(deliveryID, event)); err != nil {
		return apperrors.NewUnavailable("Relay is shutting down.")
	}

	h.logger.Info("received webhook event",
		zap.String("delivery_id", deliveryID),
		zap.String("event", domain.EventName(event)),
		zap.String("item", event.Ref().Name))
	return c.JSON(dto.WebhookAccepted{Detail: "Successfully received webhook data"})
}
