package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/ratelimit"
	"github.com/jhoicas/Kardex-api/pkg/logger"
)

// RateLimitAdminHandler administra la configuración del controlador de
// admisión en caliente. Solo rol admin.
type RateLimitAdminHandler struct {
	provider *ratelimit.FileProvider
	log      *logger.Logger
}

// NewRateLimitAdminHandler construye el handler.
func NewRateLimitAdminHandler(provider *ratelimit.FileProvider, log *logger.Logger) *RateLimitAdminHandler {
	return &RateLimitAdminHandler{provider: provider, log: log}
}

// GetConfig godoc
// @Summary      Configuración vigente del rate limiter
// @Tags         admin
// @Produce      json
// @Success      200  {object}  dto.RateLimitConfigResponse
// @Security     BearerAuth
// @Router       /api/admin/rate-limits [get]
func (h *RateLimitAdminHandler) GetConfig(c *fiber.Ctx) error {
	return c.JSON(toConfigResponse(h.provider.Current()))
}

// UpdateConfig godoc
// @Summary      Reemplazar los overrides del rate limiter
// @Description  Persiste el conjunto completo de overrides y lo aplica sin reiniciar; las ventanas en curso no se reinician
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      dto.UpdateRateLimitRequest  true  "Overrides"
// @Success      200   {object}  dto.RateLimitConfigResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/admin/rate-limits [put]
func (h *RateLimitAdminHandler) UpdateConfig(c *fiber.Ctx) error {
	var req dto.UpdateRateLimitRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body JSON inválido")
	}

	overrides := make([]ratelimit.Override, 0, len(req.Overrides))
	for _, o := range req.Overrides {
		overrides = append(overrides, ratelimit.Override{
			Pattern:       o.Pattern,
			MaxRequests:   o.MaxRequests,
			WindowSeconds: o.WindowSeconds,
			IsRegex:       o.IsRegex,
		})
	}

	if err := h.provider.Save(overrides); err != nil {
		return badRequest(c, err.Error())
	}

	h.log.Info().Int("overrides", len(overrides)).Str("user_id", GetUserID(c)).
		Msg("overrides de rate limit actualizados")
	return c.JSON(toConfigResponse(h.provider.Current()))
}

func toConfigResponse(cfg *ratelimit.Config) dto.RateLimitConfigResponse {
	out := dto.RateLimitConfigResponse{
		WindowSeconds: cfg.WindowSeconds,
		MaxRequests:   cfg.MaxRequests,
		Overrides:     make([]dto.RateLimitOverrideDTO, 0, len(cfg.Overrides)),
	}
	for _, o := range cfg.Overrides {
		out.Overrides = append(out.Overrides, dto.RateLimitOverrideDTO{
			Pattern:       o.Pattern,
			MaxRequests:   o.MaxRequests,
			WindowSeconds: o.WindowSeconds,
			IsRegex:       o.IsRegex,
		})
	}
	return out
}
