package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Accesos-api/internal/application/dto"
	"github.com/jhoicas/Accesos-api/internal/domain"
)

// Códigos de error del cuerpo JSON.
const (
	CodeUnauthenticated      = "UNAUTHENTICATED"
	CodeAccountDisabled      = "ACCOUNT_DISABLED"
	CodeAccountLocked        = "ACCOUNT_LOCKED"
	CodeAccountUnapproved    = "ACCOUNT_UNAPPROVED"
	CodeForbidden            = "FORBIDDEN"
	CodeBranchAccessDenied   = "BRANCH_ACCESS_DENIED"
	CodeNoActiveSubscription = "NO_ACTIVE_SUBSCRIPTION"
	CodeFeatureNotInPlan     = "FEATURE_NOT_IN_PLAN"
	CodeLimitExceeded        = "LIMIT_EXCEEDED"
	CodeNotFound             = "NOT_FOUND"
	CodeInvalidBody          = "INVALID_BODY"
	CodeValidation           = "VALIDATION"
	CodeConflict             = "CONFLICT"
	CodeInternal             = "INTERNAL"
)

// writeError traduce un error de dominio a status y cuerpo HTTP.
// Una referencia a otro negocio se responde igual que una prohibición: nunca 404.
func writeError(c *fiber.Ctx, err error) error {
	status, body := mapError(err)
	if status == fiber.StatusInternalServerError {
		requestLogger(c).Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	}
	return c.Status(status).JSON(body)
}

func mapError(err error) (int, dto.ErrorResponse) {
	var fe *domain.FeatureNotInPlanError
	var le *domain.LimitExceededError
	var ve validator.ValidationErrors

	switch {
	case errors.Is(err, errInvalidBody):
		return fiber.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: CodeInvalidBody}
	case errors.As(err, &ve):
		details := make(map[string]any, len(ve))
		for _, fieldErr := range ve {
			details[fieldErr.Field()] = fieldErr.Tag()
		}
		return fiber.StatusBadRequest, dto.ErrorResponse{Error: "datos inválidos", Code: CodeValidation, Details: details}

	case errors.Is(err, domain.ErrUnauthenticated):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Error: err.Error(), Code: CodeUnauthenticated}
	case errors.Is(err, domain.ErrAccountDisabled):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Error: err.Error(), Code: CodeAccountDisabled}
	case errors.Is(err, domain.ErrAccountLocked):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Error: err.Error(), Code: CodeAccountLocked}

	case errors.Is(err, domain.ErrAccountUnapproved):
		return fiber.StatusForbidden, dto.ErrorResponse{Error: err.Error(), Code: CodeAccountUnapproved}
	case errors.Is(err, domain.ErrBranchAccessDenied):
		return fiber.StatusForbidden, dto.ErrorResponse{Error: err.Error(), Code: CodeBranchAccessDenied}
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrTenantMismatch):
		return fiber.StatusForbidden, dto.ErrorResponse{Error: domain.ErrForbidden.Error(), Code: CodeForbidden}

	case errors.As(err, &fe):
		return fiber.StatusForbidden, dto.ErrorResponse{
			Error: err.Error(), Code: CodeFeatureNotInPlan, RequiresSubscription: true,
			Details: map[string]any{"feature": fe.Feature},
		}
	case errors.As(err, &le):
		return fiber.StatusForbidden, dto.ErrorResponse{
			Error: err.Error(), Code: CodeLimitExceeded, RequiresSubscription: true,
			Details: map[string]any{"resource": le.Resource, "current": le.Current, "ceiling": le.Ceiling},
		}
	case errors.Is(err, domain.ErrNoActiveSubscription):
		return fiber.StatusForbidden, dto.ErrorResponse{Error: err.Error(), Code: CodeNoActiveSubscription, RequiresSubscription: true}

	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Error: err.Error(), Code: CodeNotFound}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: CodeValidation}
	case errors.Is(err, domain.ErrEmailAlreadyExists), errors.Is(err, domain.ErrDuplicate),
		errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict, dto.ErrorResponse{Error: err.Error(), Code: CodeConflict}

	default:
		return fiber.StatusInternalServerError, dto.ErrorResponse{Error: "error interno", Code: CodeInternal}
	}
}
