package alerts

// Status clasificación de stock de un producto en una tienda.
type Status string

// Estados posibles según cantidad proyectada y umbral.
const (
	StatusOutOfStock Status = "OUT_OF_STOCK"
	StatusLowStock   Status = "LOW_STOCK"
	StatusNormal     Status = "NORMAL"
)

// DefaultThreshold umbral de stock bajo si el caller no envía uno.
const DefaultThreshold int64 = 10

// Classify deriva el estado de alerta (servicio de dominio, puro y sin estado).
// cantidad <= 0 -> OUT_OF_STOCK; 0 < cantidad <= umbral -> LOW_STOCK; resto NORMAL.
func Classify(quantity, threshold int64) Status {
	switch {
	case quantity <= 0:
		return StatusOutOfStock
	case quantity <= threshold:
		return StatusLowStock
	default:
		return StatusNormal
	}
}
