package handlers

import (
	"encoding/json"

	"github.com/cpgram/backend/internal/config"
	"github.com/cpgram/backend/internal/http/dto"
	"github.com/cpgram/backend/internal/middleware"
	"github.com/cpgram/backend/internal/services"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PurchaseHandler struct {
	purchaseService *services.PurchaseService
	cfg             *config.Config
	log             *zap.Logger
}

func NewPurchaseHandler(purchaseService *services.PurchaseService, cfg *config.Config, log *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService, cfg: cfg, log: log}
}

// Rates exposes the Stars conversion so the client can price the top-up
// before opening the invoice.
func (h *PurchaseHandler) Rates(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{
		"stars_per_cpc": h.cfg.StarsPerCPC,
		"min_cpc":       h.cfg.MinPurchaseCPC,
	}})
}

// Create opens a purchase intent and returns it with the Stars invoice link.
func (h *PurchaseHandler) Create(c *fiber.Ctx) error {
	var req dto.CreatePurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	userID := middleware.GetUserID(c)
	purchase, err := h.purchaseService.Create(c.Context(), userID, req.AmountCPC)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: purchase})
}

func (h *PurchaseHandler) List(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c, 20)
	purchases, err := h.purchaseService.List(c.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error("list purchases failed", zap.Error(err))
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: purchases})
}

// PaymentWebhook receives Bot API updates for the payment flow. Two update
// kinds matter: pre_checkout_query, which must be answered before Telegram
// charges the user, and message.successful_payment, whose invoice payload
// carries the purchase id. Everything else is acknowledged and dropped.
// Replays of an already settled payment are acknowledged without crediting
// twice.
func (h *PurchaseHandler) PaymentWebhook(c *fiber.Ctx) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		return badRequest(c, "invalid update body")
	}

	if update.PreCheckoutQuery != nil {
		q := update.PreCheckoutQuery
		if err := h.purchaseService.AnswerPreCheckout(c.Context(), q.ID, q.InvoicePayload); err != nil {
			h.log.Error("pre-checkout answer failed", zap.String("query_id", q.ID), zap.Error(err))
			return respondErr(c, err)
		}
		return c.JSON(dto.SuccessResponse{OK: true})
	}

	if update.Message != nil && update.Message.SuccessfulPayment != nil {
		payload := update.Message.SuccessfulPayment.InvoicePayload
		if err := h.purchaseService.ConfirmPayment(c.Context(), payload); err != nil {
			return respondErr(c, err)
		}
		return c.JSON(dto.SuccessResponse{OK: true})
	}

	// Unrelated update types; 200 keeps Telegram from retrying.
	return c.JSON(dto.SuccessResponse{OK: true})
}
