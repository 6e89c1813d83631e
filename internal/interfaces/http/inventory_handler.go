package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	appalerts "github.com/jhoicas/Kardex-api/internal/application/alerts"
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/application/inventory"
	"github.com/jhoicas/Kardex-api/internal/application/reports"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/jhoicas/Kardex-api/pkg/logger"
)

// InventoryHandler expone el kardex por HTTP: mutaciones de stock, inventario
// proyectado, alertas, historial y reporte PDF.
type InventoryHandler struct {
	mutations *inventory.StockMutationUseCase
	queries   *inventory.InventoryQueryUseCase
	alerts    *appalerts.AlertsUseCase
	reports   *reports.ReportUseCase
	log       *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	mutations *inventory.StockMutationUseCase,
	queries *inventory.InventoryQueryUseCase,
	alerts *appalerts.AlertsUseCase,
	reports *reports.ReportUseCase,
	log *logger.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		mutations: mutations,
		queries:   queries,
		alerts:    alerts,
		reports:   reports,
		log:       log,
	}
}

// AddStock godoc
// @Summary      Registrar entrada de mercancía
// @Description  Agrega un movimiento STOCK_IN al kardex de la tienda
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        storeId  path      string               true  "ID de la tienda"
// @Param        body     body      dto.AddStockRequest  true  "Movimiento"
// @Success      201      {object}  dto.MovementResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      404      {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/stores/{storeId}/stock/add [post]
func (h *InventoryHandler) AddStock(c *fiber.Ctx) error {
	var req dto.AddStockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body JSON inválido")
	}

	mov, err := h.mutations.AddStock(c.Context(), inventory.MutationInput{
		StoreID:   c.Params("storeId"),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Notes:     req.Notes,
		UserID:    GetUserID(c),
	})
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.MapMovement(mov))
}

// RecordSale godoc
// @Summary      Registrar venta
// @Description  Agrega un movimiento SALE; rechaza ventas que dejarían el stock negativo
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        storeId  path      string                 true  "ID de la tienda"
// @Param        body     body      dto.RecordSaleRequest  true  "Movimiento"
// @Success      201      {object}  dto.MovementResponse
// @Failure      400      {object}  dto.InsufficientStockResponse
// @Failure      404      {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/stores/{storeId}/stock/sale [post]
func (h *InventoryHandler) RecordSale(c *fiber.Ctx) error {
	var req dto.RecordSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body JSON inválido")
	}

	mov, err := h.mutations.RecordSale(c.Context(), inventory.MutationInput{
		StoreID:   c.Params("storeId"),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Notes:     req.Notes,
		UserID:    GetUserID(c),
	})
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.MapMovement(mov))
}

// RemoveStock godoc
// @Summary      Registrar baja manual
// @Description  Agrega un movimiento MANUAL_REMOVAL (merma, daño, ajuste); mismo invariante de stock que la venta
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        storeId  path      string                  true  "ID de la tienda"
// @Param        body     body      dto.RemoveStockRequest  true  "Movimiento"
// @Success      201      {object}  dto.MovementResponse
// @Failure      400      {object}  dto.InsufficientStockResponse
// @Failure      404      {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/stores/{storeId}/stock/removal [post]
func (h *InventoryHandler) RemoveStock(c *fiber.Ctx) error {
	var req dto.RemoveStockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body JSON inválido")
	}

	mov, err := h.mutations.RemoveStock(c.Context(), inventory.MutationInput{
		StoreID:   c.Params("storeId"),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Notes:     req.Notes,
		UserID:    GetUserID(c),
	})
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.MapMovement(mov))
}

// CurrentInventory godoc
// @Summary      Inventario actual de la tienda
// @Description  Proyección derivada del kardex: cantidad, valor y estado por producto
// @Tags         inventory
// @Produce      json
// @Param        storeId    path      string  true   "ID de la tienda"
// @Param        category   query     string  false  "Filtrar por categoría"
// @Param        min_stock  query     int     false  "Cantidad mínima"
// @Param        max_stock  query     int     false  "Cantidad máxima"
// @Param        low_stock  query     bool    false  "Solo productos en LOW_STOCK"
// @Param        out_of_stock query   bool    false  "Solo productos en OUT_OF_STOCK"
// @Param        threshold  query     int     false  "Umbral de stock bajo (default 10)"
// @Success      200        {object}  dto.CurrentInventoryResponse
// @Failure      404        {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/stores/{storeId}/inventory [get]
func (h *InventoryHandler) CurrentInventory(c *fiber.Ctx) error {
	q := inventory.CurrentInventoryQuery{
		Category:   c.Query("category"),
		LowStock:   c.QueryBool("low_stock"),
		OutOfStock: c.QueryBool("out_of_stock"),
		Threshold:  int64(c.QueryInt("threshold")),
	}
	if v := c.Query("min_stock"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "min_stock inválido")
		}
		q.MinStock = &n
	}
	if v := c.Query("max_stock"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "max_stock inválido")
		}
		q.MaxStock = &n
	}

	resp, err := h.queries.CurrentInventory(c.Context(), c.Params("storeId"), q)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(resp)
}

// Alerts godoc
// @Summary      Alertas de stock de la tienda
// @Description  Productos en OUT_OF_STOCK y LOW_STOCK según el umbral pedido
// @Tags         inventory
// @Produce      json
// @Param        storeId    path      string  true   "ID de la tienda"
// @Param        threshold  query     int     false  "Umbral de stock bajo (default 10)"
// @Success      200        {object}  dto.AlertsResponse
// @Failure      404        {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/stores/{storeId}/inventory/alerts [get]
func (h *InventoryHandler) Alerts(c *fiber.Ctx) error {
	resp, err := h.alerts.AlertsForStore(c.Context(), c.Params("storeId"), int64(c.QueryInt("threshold")))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(resp)
}

// Movements godoc
// @Summary      Historial de movimientos
// @Description  Kardex filtrable por producto, tienda, tipo y rango de fechas, más reciente primero. También disponible anidado bajo /stores/:storeId/stock/movements.
// @Tags         stock
// @Produce      json
// @Param        store_id    query     string  false  "Filtrar por tienda"
// @Param        product_id  query     string  false  "Filtrar por producto"
// @Param        type        query     string  false  "STOCK_IN | SALE | MANUAL_REMOVAL"
// @Param        from        query     string  false  "Desde (RFC3339)"
// @Param        to          query     string  false  "Hasta (RFC3339)"
// @Param        limit       query     int     false  "Máximo de filas (default 50)"
// @Param        offset      query     int     false  "Desplazamiento"
// @Success      200         {array}   dto.MovementResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badRequest(c, "paginación inválida")
	}
	page.DefaultPage()

	filter := repository.MovementFilter{
		ProductID: c.Query("product_id"),
		Type:      c.Query("type"),
		Limit:     page.Limit,
		Offset:    page.Offset,
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "from inválido, se espera RFC3339")
		}
		filter.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "to inválido, se espera RFC3339")
		}
		filter.To = &t
	}

	// En la ruta anidada la tienda viene del path y debe existir (404 si no);
	// en la global es apenas un filtro opcional.
	var out []dto.MovementResponse
	var err error
	if storeID := c.Params("storeId"); storeID != "" {
		out, err = h.queries.StoreMovements(c.Context(), storeID, filter)
	} else {
		filter.StoreID = c.Query("store_id")
		out, err = h.queries.MovementHistory(c.Context(), filter)
	}
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(out)
}

// InventoryReport godoc
// @Summary      Reporte PDF del inventario actual
// @Tags         inventory
// @Produce      application/pdf
// @Param        storeId    path      string  true   "ID de la tienda"
// @Param        threshold  query     int     false  "Umbral de stock bajo (default 10)"
// @Success      200        {file}    binary
// @Failure      404        {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/stores/{storeId}/inventory/report [get]
func (h *InventoryHandler) InventoryReport(c *fiber.Ctx) error {
	pdfBytes, filename, err := h.reports.InventoryReportPDF(c.Context(), c.Params("storeId"), int64(c.QueryInt("threshold")))
	if err != nil {
		return h.mapError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}

// mapError traduce errores de dominio a estados HTTP.
func (h *InventoryHandler) mapError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusBadRequest).JSON(dto.InsufficientStockResponse{
			Code:              "INSUFFICIENT_STOCK",
			Message:           insufficient.Error(),
			CurrentStock:      insufficient.CurrentStock,
			RequestedQuantity: insufficient.Requested,
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return badRequest(c, "entrada inválida")
	case errors.Is(err, domain.ErrStoreInactive):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "STORE_INACTIVE", Message: "la tienda está inactiva"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto o tienda no encontrado"})
	default:
		h.log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: msg})
}
