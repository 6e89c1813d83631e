package dto

// RateLimitOverrideDTO un override de límite por patrón de endpoint.
// Pattern se compara como substring case-insensitive, o como regex si IsRegex.
type RateLimitOverrideDTO struct {
	Pattern       string `json:"pattern"`
	MaxRequests   int    `json:"max_requests"`
	WindowSeconds int    `json:"window_seconds,omitempty"` // 0 = ventana global
	IsRegex       bool   `json:"is_regex,omitempty"`
}

// RateLimitConfigResponse configuración efectiva del controlador de admisión.
type RateLimitConfigResponse struct {
	WindowSeconds int                    `json:"window_seconds"`
	MaxRequests   int                    `json:"max_requests"`
	Overrides     []RateLimitOverrideDTO `json:"overrides"`
}

// UpdateRateLimitRequest body de PUT /api/admin/rate-limits. Reemplaza el
// conjunto completo de overrides; se persiste y recarga en caliente.
type UpdateRateLimitRequest struct {
	Overrides []RateLimitOverrideDTO `json:"overrides"`
}
