// services/http.go
package services

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"game-competition-system/middleware"
)

// callerID resolves the effective caller set by the user context middleware.
func callerID(c *fiber.Ctx) string {
	return middleware.CallerID(c)
}

// isAdminCaller reports whether the Gateway resolved the admin role for
// this request.
func isAdminCaller(c *fiber.Ctx) bool {
	return middleware.HasRole(c, middleware.RoleAdmin)
}

// respondDomainError maps a domain error to an HTTP response. The error name
// travels in the body so Gateway clients can branch on it.
func respondDomainError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch {
	case errors.Is(err, ErrProfileDoesNotExist),
		errors.Is(err, ErrNodeInfoDoesNotExist),
		errors.Is(err, ErrInvalidGame),
		errors.Is(err, ErrCompetitionDoesNotExist),
		errors.Is(err, ErrMatchDoesNotExist):
		status = fiber.StatusNotFound

	case errors.Is(err, ErrProfileAlreadyExists),
		errors.Is(err, ErrGameAlreadyExists),
		errors.Is(err, ErrAlreadyRegistered):
		status = fiber.StatusConflict

	case errors.Is(err, ErrProfileDisabled),
		errors.Is(err, ErrNodeAlreadyActive),
		errors.Is(err, ErrNodeNotActive),
		errors.Is(err, ErrGameNotActive),
		errors.Is(err, ErrCompetitionNotActive),
		errors.Is(err, ErrPendingCompetition),
		errors.Is(err, ErrMatchAlreadySubmitted),
		errors.Is(err, ErrCompetitionFull):
		status = fiber.StatusConflict

	case errors.Is(err, ErrJudgeNotAuthorized):
		status = fiber.StatusForbidden

	case errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrInsufficientLoyalty):
		status = fiber.StatusPaymentRequired

	case errors.Is(err, ErrInvalidTicketDeposit),
		errors.Is(err, ErrNodeInvalidQuantity),
		errors.Is(err, ErrInvalidNodeTier),
		errors.Is(err, ErrInvalidReward),
		errors.Is(err, ErrMatchNotEligible),
		errors.Is(err, ErrInvalidMatchIndex),
		errors.Is(err, ErrUnsupportedPrizeType),
		errors.Is(err, ErrInsufficientJudges),
		errors.Is(err, ErrInvalidCompetitionParams):
		status = fiber.StatusBadRequest
	}

	if status == fiber.StatusInternalServerError {
		log.Printf("DB Error: %v", err)
		return c.Status(status).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
