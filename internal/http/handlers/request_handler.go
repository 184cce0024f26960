package handlers

import (
	"github.com/cpgram/backend/internal/http/dto"
	"github.com/cpgram/backend/internal/middleware"
	"github.com/cpgram/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RequestHandler struct {
	requestService *services.RequestService
	log            *zap.Logger
}

func NewRequestHandler(requestService *services.RequestService, log *zap.Logger) *RequestHandler {
	return &RequestHandler{requestService: requestService, log: log}
}

func (h *RequestHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	fromID, err := uuid.Parse(req.FromChannelID)
	if err != nil {
		return badRequest(c, "invalid from_channel_id")
	}
	toID, err := uuid.Parse(req.ToChannelID)
	if err != nil {
		return badRequest(c, "invalid to_channel_id")
	}

	userID := middleware.GetUserID(c)
	pr, err := h.requestService.Create(c.Context(), userID, fromID, toID, req.Day, req.TimeSlot, req.DurationHours)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: pr})
}

func (h *RequestHandler) List(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c, 20)
	requests, err := h.requestService.List(c.Context(), userID, c.Query("status"), limit, offset)
	if err != nil {
		h.log.Error("list requests failed", zap.Error(err))
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: requests})
}

// Accept resolves the request and returns the campaign created from it.
func (h *RequestHandler) Accept(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid request id")
	}

	var req dto.AcceptRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	promoID, err := uuid.Parse(req.PromoID)
	if err != nil {
		return badRequest(c, "invalid promo_id")
	}

	userID := middleware.GetUserID(c)
	campaign, err := h.requestService.Accept(c.Context(), userID, id, promoID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

func (h *RequestHandler) Decline(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid request id")
	}

	var req dto.DeclineRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	userID := middleware.GetUserID(c)
	if err := h.requestService.Decline(c.Context(), userID, id, req.Reason); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
