package handlers

import (
	"errors"
	"strconv"

	"libradesk/internal/core/services"
	"libradesk/internal/pkg/response"
	"libradesk/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// fail maps service errors to responses; anything unrecognised is a 500 with fallback as message
func fail(c *fiber.Ctx, err error, fallback string) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return response.ValidationFailed(c, verr.Fields)
	}

	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrBookNotFound),
		errors.Is(err, services.ErrLoanNotFound),
		errors.Is(err, services.ErrVisitNotFound):
		return response.NotFound(c, err.Error())

	case errors.Is(err, services.ErrUserAlreadyExists),
		errors.Is(err, services.ErrStudentIDAlreadyUsed),
		errors.Is(err, services.ErrEmailAlreadyExists),
		errors.Is(err, services.ErrDuplicateISBN),
		errors.Is(err, services.ErrCopiesOnLoan),
		errors.Is(err, services.ErrBookOnLoan),
		errors.Is(err, services.ErrNoCopiesAvailable),
		errors.Is(err, services.ErrLoanAlreadyReturned),
		errors.Is(err, services.ErrVisitAlreadyClosed):
		return response.Conflict(c, err.Error())

	case errors.Is(err, services.ErrInvalidDueDate),
		errors.Is(err, services.ErrInvalidLoanStatus),
		errors.Is(err, services.ErrVisitorIdentityRequired),
		errors.Is(err, services.ErrPasswordTooWeak),
		errors.Is(err, services.ErrOldPasswordWrong),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrCannotDeleteSelf),
		errors.Is(err, services.ErrCannotChangeOwnRole):
		return response.BadRequest(c, err.Error())

	case errors.Is(err, services.ErrNotYourLoan):
		return response.Forbidden(c, err.Error())

	case errors.Is(err, services.ErrUserInactive):
		return response.Forbidden(c, "User account is inactive")
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("❌ " + fallback)
	return response.InternalServerError(c, fallback)
}

// paramID parses a positive numeric path parameter
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
