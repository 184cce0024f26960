package handlers

import (
	"github.com/cpgram/backend/internal/http/dto"
	"github.com/cpgram/backend/internal/middleware"
	"github.com/cpgram/backend/internal/repositories"
	"github.com/cpgram/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AdminHandler struct {
	channelService *services.ChannelService
	taskService    *services.TaskService
	statsRepo      *repositories.StatsRepo
	log            *zap.Logger
}

func NewAdminHandler(channelService *services.ChannelService, taskService *services.TaskService, statsRepo *repositories.StatsRepo, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		channelService: channelService,
		taskService:    taskService,
		statsRepo:      statsRepo,
		log:            log,
	}
}

// Channels lists channels for moderation, pending ones by default.
func (h *AdminHandler) Channels(c *fiber.Ctx) error {
	limit, offset := pagination(c, 20)
	channels, err := h.channelService.ListForModeration(c.Context(), c.Query("status"), limit, offset)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: channels})
}

func (h *AdminHandler) ModerateChannel(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid channel id")
	}

	var req dto.ModerateChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	var approve bool
	switch req.Action {
	case "approve":
		approve = true
	case "reject":
		if req.Reason == "" {
			return badRequest(c, "reason is required when rejecting")
		}
	default:
		return badRequest(c, "action must be approve or reject")
	}

	moderatorID := middleware.GetUserID(c)
	ch, err := h.channelService.Moderate(c.Context(), moderatorID, id, approve, req.Reason)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ch})
}

// ResetInvite restores a user's invite task eligibility after a completed run.
func (h *AdminHandler) ResetInvite(c *fiber.Ctx) error {
	var req dto.AdminInviteResetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return badRequest(c, "invalid user_id")
	}

	if err := h.taskService.RenewInviteForUser(c.Context(), userID); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.statsRepo.Counters(c.Context())
	if err != nil {
		h.log.Error("platform stats query failed", zap.Error(err))
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: stats})
}
