package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Firmador-api/internal/application/dto"
	"github.com/jhoicas/Firmador-api/internal/domain"
)

// writeError traduce un error de dominio a status HTTP y ErrorResponse.
// Los errores de infraestructura se registran y responden 500 sin detalles.
func writeError(c *fiber.Ctx, err error) error {
	var qe *domain.QuotaError
	var te *domain.TransitionError
	switch {
	case errors.As(err, &qe):
		return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{
			Code:    "QUOTA_EXCEEDED",
			Message: "límite del plan alcanzado",
			Details: map[string]any{"kind": qe.Kind, "limit": qe.Limit},
		})
	case errors.As(err, &te):
		details := map[string]any{"entity": te.Entity, "from": te.From, "to": te.To}
		if te.Reason != "" {
			details["reason"] = te.Reason
		}
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INVALID_STATE_TRANSITION",
			Message: "transición de estado inválida",
			Details: details,
		})
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE_TRANSITION", Message: "transición de estado inválida"})
	case errors.Is(err, domain.ErrSignerNotReady):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SIGNER_NOT_READY", Message: "el firmante aún no tiene turno"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto con el estado actual, reintente"})
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "EMAIL_EXISTS", Message: "el email ya está registrado"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "recurso duplicado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// writePublicError respuesta uniforme del flujo público: no distingue token desconocido,
// solicitud vencida o firmante fuera de turno. La causa exacta ya quedó en el log del gateway.
func writePublicError(c *fiber.Ctx, err error) error {
	if isPublicDomainError(err) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "LINK_INVALID", Message: "link inválido o expirado"})
	}
	log.Error().Err(err).Str("path", c.Route().Path).Msg("error interno en flujo público")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func isPublicDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound, domain.ErrSignerNotReady, domain.ErrInvalidStateTransition,
		domain.ErrConflict, domain.ErrForbidden, domain.ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	p := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage()
	return p
}
