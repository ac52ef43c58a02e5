package handlers

import (
	"sms-ledger/internal/dto"
	"sms-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SMSHandler struct {
	pipeline *service.PipelineService
	logger   *zap.Logger
}

func NewSMSHandler(pipeline *service.PipelineService, logger *zap.Logger) *SMSHandler {
	return &SMSHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// IngestSMS accepts one forwarded bank SMS and runs it through the
// pipeline. Every pipeline outcome is a 200; rejections and skips are
// expected results, not transport errors.
func (h *SMSHandler) IngestSMS(c *fiber.Ctx) error {
	var req dto.SMSRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Body == "" && req.Sender == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "sender or body is required",
		})
	}

	outcome, err := h.pipeline.Process(c.UserContext(), req)
	if err != nil {
		h.logger.Error("Pipeline failure",
			zap.String("sender", req.Sender),
			zap.String("status", string(outcome.Status)),
			zap.Error(err),
		)
	}

	resp := dto.SMSResponse{
		Status: string(outcome.Status),
		Reason: outcome.Reason,
	}
	if outcome.TransactionID != uuid.Nil {
		resp.TransactionID = outcome.TransactionID.String()
	}

	return c.JSON(resp)
}
