package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Kardex-api/internal/ratelimit"
	"github.com/jhoicas/Kardex-api/pkg/logger"
)

// RouterDeps dependencias del router HTTP.
type RouterDeps struct {
	Inventory      *InventoryHandler
	RateLimitAdmin *RateLimitAdminHandler
	Limiter        *ratelimit.Limiter
	JWTSecret      string
	Log            *logger.Logger
}

// Router registra todas las rutas de la API. Orden de middlewares en /api:
// primero el controlador de admisión (resuelve el actor por sí mismo, o cae a
// la IP: una avalancha sin token también se cuenta), luego auth.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api",
		RateLimitMiddleware(deps.Limiter, deps.JWTSecret, deps.Log),
		AuthMiddleware(deps.JWTSecret),
	)

	stores := api.Group("/stores/:storeId")

	stock := stores.Group("/stock")
	stock.Post("/add", deps.Inventory.AddStock)
	stock.Post("/sale", deps.Inventory.RecordSale)
	stock.Post("/removal", deps.Inventory.RemoveStock)
	stock.Get("/movements", deps.Inventory.Movements)

	stores.Get("/inventory", deps.Inventory.CurrentInventory)
	stores.Get("/inventory/alerts", deps.Inventory.Alerts)
	stores.Get("/inventory/report", deps.Inventory.InventoryReport)

	// Historial global del kardex, con la tienda como filtro opcional.
	api.Get("/inventory/movements", deps.Inventory.Movements)

	admin := api.Group("/admin", RequireRole("admin"))
	admin.Get("/rate-limits", deps.RateLimitAdmin.GetConfig)
	admin.Put("/rate-limits", deps.RateLimitAdmin.UpdateConfig)
}
