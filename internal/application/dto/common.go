package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// InsufficientStockResponse cuerpo de error para débitos que exceden el stock
// proyectado. Lleva las cantidades para que el cliente las muestre.
type InsufficientStockResponse struct {
	Code              string `json:"code"`
	Message           string `json:"message"`
	CurrentStock      int64  `json:"current_stock"`
	RequestedQuantity int64  `json:"requested_quantity"`
}

// RateLimitResponse cuerpo del HTTP 429 del controlador de admisión.
type RateLimitResponse struct {
	Error             string `json:"error"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}
