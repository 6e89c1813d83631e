package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/ratelimit"
	"github.com/jhoicas/Kardex-api/pkg/jwt"
	"github.com/jhoicas/Kardex-api/pkg/logger"
)

// RateLimitMiddleware aplica el controlador de admisión a cada petición,
// ANTES del middleware de auth: una avalancha sin token también cuenta.
// La identidad del cliente es el UserID del token si trae uno válido; si no,
// la IP de origen. El rechazo responde 429 con retry_after_seconds y deja un
// registro estructurado en el log.
func RateLimitMiddleware(limiter *ratelimit.Limiter, jwtSecret string, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := GetUserID(c)
		if clientID == "" {
			// Todavía no corrió el auth: se resuelve el actor aquí mismo.
			if tok := bearerToken(c); tok != "" {
				if userID, _, err := jwt.Parse(jwtSecret, tok); err == nil {
					clientID = userID
				}
			}
		}
		if clientID == "" {
			clientID = c.IP()
		}
		path := c.Path()

		decision := limiter.Admit(clientID, path)
		if decision.Allowed {
			return c.Next()
		}

		log.Warn().
			Str("client_id", clientID).
			Str("path", path).
			Str("method", c.Method()).
			Str("ip", c.IP()).
			Str("user_agent", c.Get("User-Agent")).
			Int("limit", decision.Limit).
			Int("retry_after_seconds", decision.RetryAfterSeconds).
			Msg("petición rechazada por rate limit")

		rlErr := &domain.RateLimitExceededError{RetryAfterSeconds: decision.RetryAfterSeconds}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(decision.RetryAfterSeconds))
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.RateLimitResponse{
			Error:             rlErr.Error(),
			RetryAfterSeconds: decision.RetryAfterSeconds,
		})
	}
}
