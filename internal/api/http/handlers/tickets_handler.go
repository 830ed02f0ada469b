package handlers

import (
	"bytes"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/teplocom/support-triage/internal/api/dto"
	"github.com/teplocom/support-triage/internal/domain"
	"github.com/teplocom/support-triage/internal/service"
	apperrors "github.com/teplocom/support-triage/pkg/util/errorutil"
)

// TicketsHandler manages operator ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// List GET /api/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	tickets, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Table GET /api/tickets/table.
func (h *TicketsHandler) Table(c *fiber.Ctx) error {
	tickets, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	rows := make([]dto.TicketTableRow, 0, len(tickets))
	for i := range tickets {
		rows = append(rows, ticketTableRow(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": rows})
}

// Get GET /api/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Update PUT /api/tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.Update(c.UserContext(), id, service.TicketUpdateInput{
		FullName:      req.FullName,
		ObjectName:    req.ObjectName,
		Phone:         req.Phone,
		SerialNumbers: req.SerialNumbers,
		DeviceType:    req.DeviceType,
		Sentiment:     req.Sentiment,
		IssueSummary:  req.IssueSummary,
		FinalAnswer:   req.FinalAnswer,
		Status:        req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Reply POST /api/tickets/:id/reply.
func (h *TicketsHandler) Reply(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Reply(c.UserContext(), id, req.ReplyText)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "ok", "data": ticketResponse(ticket)})
}

// ExportCSV GET /api/tickets/export/csv.
func (h *TicketsHandler) ExportCSV(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.service.ExportCSV(c.UserContext(), &buf); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename=tickets.csv`)
	return c.Send(buf.Bytes())
}

// Analytics GET /api/analytics.
func (h *TicketsHandler) Analytics(c *fiber.Ctx) error {
	report, err := h.service.Analytics(c.UserContext())
	if err != nil {
		return err
	}

	byStatus := make(map[string]int64, len(report.ByStatus))
	for status, count := range report.ByStatus {
		byStatus[string(status)] = count
	}
	bySentiment := make(map[string]int64, len(report.BySentiment))
	for sentiment, count := range report.BySentiment {
		bySentiment[string(sentiment)] = count
	}
	daily := make([]dto.DailyCountResponse, 0, len(report.Daily))
	for _, entry := range report.Daily {
		daily = append(daily, dto.DailyCountResponse{
			Date:  entry.Date.Format("2006-01-02"),
			Count: entry.Count,
		})
	}
	return c.JSON(dto.AnalyticsResponse{
		ByStatus:    byStatus,
		BySentiment: bySentiment,
		Daily:       daily,
	})
}

func parseTicketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", nil)
	}
	return id, nil
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:              ticket.ID,
		FullName:        ticket.FullName,
		ObjectName:      ticket.ObjectName,
		Phone:           ticket.Phone,
		Email:           ticket.Email,
		SerialNumbers:   ticket.SerialNumbers,
		DeviceType:      ticket.DeviceType,
		Sentiment:       ticket.Sentiment,
		IssueSummary:    ticket.IssueSummary,
		Status:          ticket.Status,
		OriginalMessage: ticket.OriginalMessage,
		AIDraft:         ticket.AIDraft,
		FinalAnswer:     ticket.FinalAnswer,
		Context:         ticket.Context,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
	}
}

func ticketTableRow(ticket *domain.Ticket) dto.TicketTableRow {
	return dto.TicketTableRow{
		ID:            ticket.ID,
		Date:          ticket.CreatedAt,
		FullName:      ticket.FullName,
		ObjectName:    ticket.ObjectName,
		Phone:         ticket.Phone,
		Email:         ticket.Email,
		SerialNumbers: ticket.SerialNumbers,
		DeviceType:    ticket.DeviceType,
		Sentiment:     ticket.Sentiment,
		IssueSummary:  ticket.IssueSummary,
		Status:        ticket.Status,
	}
}
