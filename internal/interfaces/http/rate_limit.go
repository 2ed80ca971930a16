package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Firmador-api/internal/application/dto"
	"github.com/jhoicas/Firmador-api/internal/infrastructure/ratelimit"
)

// PublicRateLimit limita por IP las peticiones a la superficie pública de tokens.
// Si el limitador falla, la petición pasa y se registra en warn.
func PublicRateLimit(limiter ratelimit.Limiter, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}
		ok, err := limiter.Allow(c.Context(), c.IP())
		if err != nil {
			log.Warn().Err(err).Msg("limitador de tasa no disponible")
			return c.Next()
		}
		if !ok {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "RATE_LIMITED", Message: "demasiadas peticiones, intente más tarde"})
		}
		return c.Next()
	}
}
