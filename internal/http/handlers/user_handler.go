package handlers

import (
	"strconv"

	"github.com/cpgram/backend/internal/http/dto"
	"github.com/cpgram/backend/internal/middleware"
	"github.com/cpgram/backend/internal/repositories"
	"github.com/cpgram/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UserHandler struct {
	userRepo      *repositories.UserRepo
	channelRepo   *repositories.ChannelRepo
	ledgerService *services.LedgerService
	log           *zap.Logger
}

func NewUserHandler(userRepo *repositories.UserRepo, channelRepo *repositories.ChannelRepo, ledgerService *services.LedgerService, log *zap.Logger) *UserHandler {
	return &UserHandler{userRepo: userRepo, channelRepo: channelRepo, ledgerService: ledgerService, log: log}
}

// GetMe returns the profile with the current balance and owned channels, the
// single call the mini-app boots from.
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	user, err := h.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return respondErr(c, err)
	}
	channels, err := h.channelRepo.ListByOwner(c.Context(), userID)
	if err != nil {
		h.log.Error("list owned channels failed", zap.Error(err))
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{
		"user":     user,
		"balance":  user.CPCBalance,
		"channels": channels,
	}})
}

func (h *UserHandler) GetBalance(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	balance, err := h.ledgerService.Balance(c.Context(), userID)
	if err != nil {
		h.log.Error("get balance failed", zap.Error(err))
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.BalanceResponse{Balance: balance}})
}

func (h *UserHandler) GetHistory(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c, 50)
	entries, err := h.ledgerService.History(c.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error("get ledger history failed", zap.Error(err))
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}

func (h *UserHandler) UpdateLanguage(c *fiber.Ctx) error {
	var req dto.UpdateLanguageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Language == "" {
		return badRequest(c, "language is required")
	}

	userID := middleware.GetUserID(c)
	if err := h.userRepo.UpdateLanguage(c.Context(), userID, req.Language); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *UserHandler) Ping(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if err := h.userRepo.UpdateLastActive(c.Context(), userID); err != nil {
		h.log.Error("failed to update last_active", zap.Error(err))
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func pagination(c *fiber.Ctx, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
