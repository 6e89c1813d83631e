package ratelimit

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Override límite específico para un patrón de endpoint. Pattern se compara
// como substring case-insensitive, o como expresión regular si IsRegex.
type Override struct {
	Pattern       string `mapstructure:"pattern" json:"pattern"`
	MaxRequests   int    `mapstructure:"max_requests" json:"max_requests"`
	WindowSeconds int    `mapstructure:"window_seconds" json:"window_seconds"` // 0 = ventana global
	IsRegex       bool   `mapstructure:"is_regex" json:"is_regex"`

	re *regexp.Regexp
}

// Config configuración efectiva del controlador de admisión: límites globales
// más overrides por endpoint. Inmutable una vez publicada al limiter; una
// recarga publica una Config nueva completa.
type Config struct {
	WindowSeconds int
	MaxRequests   int
	Overrides     []Override
}

// Normalize valida la configuración y compila las regex de los overrides
// (case-insensitive). Debe llamarse antes de publicar la Config al limiter.
func (c *Config) Normalize() error {
	if c.WindowSeconds <= 0 {
		return fmt.Errorf("ratelimit: window_seconds debe ser > 0 (recibido %d)", c.WindowSeconds)
	}
	if c.MaxRequests <= 0 {
		return fmt.Errorf("ratelimit: max_requests debe ser > 0 (recibido %d)", c.MaxRequests)
	}
	for i := range c.Overrides {
		o := &c.Overrides[i]
		if o.Pattern == "" {
			return fmt.Errorf("ratelimit: override %d sin pattern", i)
		}
		if o.MaxRequests <= 0 {
			return fmt.Errorf("ratelimit: override %q con max_requests inválido (%d)", o.Pattern, o.MaxRequests)
		}
		if o.WindowSeconds < 0 {
			return fmt.Errorf("ratelimit: override %q con window_seconds negativo", o.Pattern)
		}
		if o.IsRegex {
			re, err := regexp.Compile("(?i)" + o.Pattern)
			if err != nil {
				return fmt.Errorf("ratelimit: override %q regex inválida: %w", o.Pattern, err)
			}
			o.re = re
		}
	}
	return nil
}

// Resolve devuelve el límite y la ventana efectivos para un endpoint: gana el
// primer override que matchea; sin match aplican los valores globales.
func (c *Config) Resolve(path string) (maxRequests int, window time.Duration) {
	for i := range c.Overrides {
		o := &c.Overrides[i]
		if o.matches(path) {
			w := o.WindowSeconds
			if w <= 0 {
				w = c.WindowSeconds
			}
			return o.MaxRequests, time.Duration(w) * time.Second
		}
	}
	return c.MaxRequests, time.Duration(c.WindowSeconds) * time.Second
}

func (o *Override) matches(path string) bool {
	if o.IsRegex && o.re != nil {
		return o.re.MatchString(path)
	}
	return strings.Contains(strings.ToLower(path), strings.ToLower(o.Pattern))
}
