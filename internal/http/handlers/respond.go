package handlers

import (
	"github.com/cpgram/backend/internal/apperr"
	"github.com/cpgram/backend/internal/http/dto"
	"github.com/cpgram/backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// httpStatus maps stable business error codes to HTTP statuses. Codes not
// listed here are treated as internal errors.
var httpStatus = map[string]int{
	apperr.CodeValidation:             fiber.StatusBadRequest,
	apperr.CodeAuthorization:          fiber.StatusForbidden,
	apperr.CodeNotFound:               fiber.StatusNotFound,
	apperr.CodeState:                  fiber.StatusConflict,
	apperr.CodeInvalidModeration:      fiber.StatusConflict,
	apperr.CodeChannelNotEditable:     fiber.StatusConflict,
	apperr.CodeCampaignStillRunning:   fiber.StatusConflict,
	apperr.CodeAlreadyClaimed:         fiber.StatusConflict,
	apperr.CodeInsufficientFunds:      fiber.StatusPaymentRequired,
	apperr.CodeInsufficientBalance:    fiber.StatusPaymentRequired,
	apperr.CodeIneligibleChannel:      fiber.StatusUnprocessableEntity,
	apperr.CodeScheduleUnavailable:    fiber.StatusUnprocessableEntity,
	apperr.CodePrivateChannelNotAdmin: fiber.StatusUnprocessableEntity,
	apperr.CodeCooldownActive:         fiber.StatusTooManyRequests,
	apperr.CodeUpstream:               fiber.StatusBadGateway,
}

func respondErr(c *fiber.Ctx, err error) error {
	reqID, _ := c.Locals(middleware.CtxRequestID).(string)

	if e, ok := apperr.As(err); ok {
		status, found := httpStatus[e.Code]
		if !found {
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(dto.ErrorResponse{
			Error:     e.Message,
			Code:      e.Code,
			Details:   e.Details,
			RequestID: reqID,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error:     "internal server error",
		Code:      "internal_error",
		RequestID: reqID,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return respondErr(c, apperr.Validation(msg))
}
