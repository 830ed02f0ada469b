package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/teplocom/support-triage/internal/api/dto"
	"github.com/teplocom/support-triage/internal/service"
	apperrors "github.com/teplocom/support-triage/pkg/util/errorutil"
)

// WebhookHandler receives inbound mail from the mail server.
type WebhookHandler struct {
	triage *service.TriageService
}

// NewWebhookHandler constructs handler.
func NewWebhookHandler(triage *service.TriageService) *WebhookHandler {
	return &WebhookHandler{triage: triage}
}

// HandleInboundEmail POST /api/webhook/email.
func (h *WebhookHandler) HandleInboundEmail(c *fiber.Ctx) error {
	var req dto.InboundEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.From) == "" || strings.TrimSpace(req.Body) == "" {
		return apperrors.NewValidationError("from and body required", nil)
	}

	ticket, err := h.triage.HandleInbound(c.UserContext(), req.From, req.Subject, req.Body)
	if err != nil {
		return err
	}
	return c.JSON(dto.InboundEmailResponse{
		Status:       "ok",
		TicketID:     ticket.ID,
		TicketStatus: ticket.Status,
	})
}
