package handlers

import (
	"github.com/cpgram/backend/internal/http/dto"
	"github.com/cpgram/backend/internal/middleware"
	"github.com/cpgram/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CampaignHandler struct {
	campaignService *services.CampaignService
	log             *zap.Logger
}

func NewCampaignHandler(campaignService *services.CampaignService, log *zap.Logger) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService, log: log}
}

func (h *CampaignHandler) List(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c, 20)
	campaigns, err := h.campaignService.List(c.Context(), userID, c.Query("status"), limit, offset)
	if err != nil {
		h.log.Error("list campaigns failed", zap.Error(err))
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaigns})
}

func (h *CampaignHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}

	userID := middleware.GetUserID(c)
	campaign, err := h.campaignService.Get(c.Context(), userID, id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

// VerifyStart accepts the poster's proof link and activates the campaign.
func (h *CampaignHandler) VerifyStart(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}

	var req dto.VerifyStartRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.PostLink == "" {
		return badRequest(c, "post_link is required")
	}

	userID := middleware.GetUserID(c)
	campaign, err := h.campaignService.VerifyStart(c.Context(), userID, id, req.PostLink)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

// Complete settles the escrow once the campaign duration has elapsed.
func (h *CampaignHandler) Complete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}

	userID := middleware.GetUserID(c)
	campaign, err := h.campaignService.Complete(c.Context(), userID, id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}
