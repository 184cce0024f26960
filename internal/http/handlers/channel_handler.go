package handlers

import (
	"github.com/cpgram/backend/internal/http/dto"
	"github.com/cpgram/backend/internal/middleware"
	"github.com/cpgram/backend/internal/models"
	"github.com/cpgram/backend/internal/services"
	"github.com/cpgram/backend/internal/tmeparser"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ChannelHandler struct {
	channelService *services.ChannelService
	log            *zap.Logger
}

func NewChannelHandler(channelService *services.ChannelService, log *zap.Logger) *ChannelHandler {
	return &ChannelHandler{channelService: channelService, log: log}
}

// Validate resolves a handle or invite reference before the owner fills in
// the submission form.
func (h *ChannelHandler) Validate(c *fiber.Ctx) error {
	var req dto.ValidateChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Input == "" {
		return badRequest(c, "input is required")
	}

	v, err := h.channelService.ValidateHandle(c.Context(), req.Input)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: v})
}

func (h *ChannelHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Input == "" {
		return badRequest(c, "input is required")
	}

	handle, ok := tmeparser.ParseHandle(req.Input)
	if !ok {
		return badRequest(c, "unrecognized channel reference")
	}

	ch := &models.Channel{
		Username: handle.Username,
		Title:    req.Title,
		Language: req.Language,
	}
	if handle.IsPrivate() {
		ch.TelegramChatID = &handle.ChatID
	}

	userID := middleware.GetUserID(c)
	ch, err := h.channelService.Submit(c.Context(), userID, ch, policyFromDTO(&req.Policy))
	if err != nil {
		return respondErr(c, err)
	}

	for i := range req.Promos {
		p := promoFromDTO(ch.ID, &req.Promos[i])
		if _, err := h.channelService.AddPromo(c.Context(), userID, p); err != nil {
			return respondErr(c, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: ch})
}

func (h *ChannelHandler) MyChannels(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	channels, err := h.channelService.ListMine(c.Context(), userID)
	if err != nil {
		h.log.Error("list my channels failed", zap.Error(err))
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: channels})
}

// Explore lists channels open to cross-promotion, excluding the caller's own.
func (h *ChannelHandler) Explore(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c, 20)
	channels, err := h.channelService.ListEligible(c.Context(), userID, c.Query("topic"), limit, offset)
	if err != nil {
		h.log.Error("explore channels failed", zap.Error(err))
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: channels})
}

func (h *ChannelHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid channel id")
	}

	ch, err := h.channelService.Get(c.Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	prices, err := h.channelService.Prices(c.Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	promos, err := h.channelService.ListPromos(c.Context(), id)
	if err != nil {
		return respondErr(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{
		"channel": ch,
		"prices":  prices,
		"promos":  promos,
	}})
}

func (h *ChannelHandler) UpdatePolicy(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid channel id")
	}

	var req dto.PolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	userID := middleware.GetUserID(c)
	if err := h.channelService.UpdatePolicy(c.Context(), userID, id, policyFromDTO(&req)); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *ChannelHandler) Pause(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid channel id")
	}

	var req dto.PauseChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	userID := middleware.GetUserID(c)
	if err := h.channelService.SetPaused(c.Context(), userID, id, req.IsPaused); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *ChannelHandler) AddPromo(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid channel id")
	}

	var req dto.PromoRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	userID := middleware.GetUserID(c)
	p, err := h.channelService.AddPromo(c.Context(), userID, promoFromDTO(id, &req))
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: p})
}

func (h *ChannelHandler) ListPromos(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid channel id")
	}
	promos, err := h.channelService.ListPromos(c.Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: promos})
}

func (h *ChannelHandler) DeletePromo(c *fiber.Ctx) error {
	promoID, err := uuid.Parse(c.Params("promoId"))
	if err != nil {
		return badRequest(c, "invalid promo id")
	}

	userID := middleware.GetUserID(c)
	if err := h.channelService.DeletePromo(c.Context(), userID, promoID); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func policyFromDTO(req *dto.PolicyRequest) *models.ChannelPolicy {
	p := &models.ChannelPolicy{
		Topic:        req.Topic,
		AcceptedDays: req.AcceptedDays,
		PromosPerDay: req.PromosPerDay,
		TimeSlots:    req.TimeSlots,
	}
	for _, pr := range req.Prices {
		p.Prices = append(p.Prices, models.DurationPrice{
			DurationHours: pr.DurationHours,
			PriceCPC:      pr.PriceCPC,
			Enabled:       pr.Enabled,
		})
	}
	return p
}

func promoFromDTO(channelID uuid.UUID, req *dto.PromoRequest) *models.Promo {
	return &models.Promo{
		ChannelID: channelID,
		Name:      req.Name,
		Text:      req.Text,
		ImageURL:  req.ImageURL,
		Link:      req.Link,
		CTA:       req.CTA,
	}
}
