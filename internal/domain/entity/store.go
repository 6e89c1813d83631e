package entity

import "time"

// Store representa una tienda o punto de venta. Un movimiento solo es válido
// contra una tienda activa (lo valida el servicio de mutaciones, no el kardex).
type Store struct {
	ID        string
	Name      string
	Address   string
	Phone     string
	Email     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
