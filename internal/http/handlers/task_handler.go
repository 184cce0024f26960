package handlers

import (
	"github.com/cpgram/backend/internal/http/dto"
	"github.com/cpgram/backend/internal/middleware"
	"github.com/cpgram/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TaskHandler struct {
	taskService *services.TaskService
	log         *zap.Logger
}

func NewTaskHandler(taskService *services.TaskService, log *zap.Logger) *TaskHandler {
	return &TaskHandler{taskService: taskService, log: log}
}

func (h *TaskHandler) ClaimWelcome(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	entry, err := h.taskService.ClaimWelcome(c.Context(), userID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entry})
}

func (h *TaskHandler) VerifyChannelJoin(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	entry, err := h.taskService.VerifyChannelJoin(c.Context(), userID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entry})
}

func (h *TaskHandler) ClaimAdReward(c *fiber.Ctx) error {
	var req dto.AdRewardRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.ViewID == "" || req.Signature == "" {
		return badRequest(c, "view_id and signature are required")
	}
	if !req.WatchedFull {
		return badRequest(c, "the ad must be watched to the end")
	}

	userID := middleware.GetUserID(c)
	entry, err := h.taskService.ClaimAdReward(c.Context(), userID, req.ViewID, req.Signature)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entry})
}

func (h *TaskHandler) ListClaimed(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	tasks, err := h.taskService.ListClaimed(c.Context(), userID)
	if err != nil {
		h.log.Error("list claimed tasks failed", zap.Error(err))
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: tasks})
}

func (h *TaskHandler) InviteStatus(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	task, eligible, err := h.taskService.InviteStatus(c.Context(), userID)
	if err != nil {
		return respondErr(c, err)
	}

	resp := dto.InviteStatusResponse{
		Eligible:  eligible,
		PromoText: h.taskService.InvitePromoText(),
	}
	if task != nil {
		resp.Task = task
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: resp})
}

func (h *TaskHandler) InviteInitiate(c *fiber.Ctx) error {
	var req dto.InviteInitiateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	channelID, err := uuid.Parse(req.ChannelID)
	if err != nil {
		return badRequest(c, "invalid channel_id")
	}

	userID := middleware.GetUserID(c)
	task, err := h.taskService.InviteInitiate(c.Context(), userID, channelID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: task})
}

func (h *TaskHandler) InviteVerifyStart(c *fiber.Ctx) error {
	var req dto.InviteVerifyStartRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		return badRequest(c, "invalid task_id")
	}
	if req.PostLink == "" {
		return badRequest(c, "post_link is required")
	}

	userID := middleware.GetUserID(c)
	task, err := h.taskService.InviteVerifyStart(c.Context(), userID, taskID, req.PostLink)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: task})
}

func (h *TaskHandler) InviteComplete(c *fiber.Ctx) error {
	var req dto.InviteCompleteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		return badRequest(c, "invalid task_id")
	}

	userID := middleware.GetUserID(c)
	entry, err := h.taskService.InviteComplete(c.Context(), userID, taskID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entry})
}
