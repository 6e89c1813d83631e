package ratelimit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/jhoicas/Kardex-api/pkg/logger"
)

// ConfigProvider capacidad de configuración del controlador de admisión,
// desacoplada del mecanismo de almacenamiento concreto.
type ConfigProvider interface {
	// Current devuelve la última configuración buena conocida.
	Current() *Config
	// Reload relee la fuente. Si falla, conserva la configuración anterior.
	Reload() error
}

// FileProvider implementación de ConfigProvider sobre un archivo YAML de
// overrides, leído vía Viper y vigilado con fsnotify para recarga en caliente.
// Los límites globales (ventana y máximo) vienen de la configuración de la
// app; el archivo solo aporta los overrides por endpoint.
type FileProvider struct {
	path     string
	defaults Config // WindowSeconds y MaxRequests globales
	log      *logger.Logger

	mu       sync.Mutex // serializa recargas y escrituras
	current  *Config    // última configuración buena
	onChange func(*Config)
}

var _ ConfigProvider = (*FileProvider)(nil)

// NewFileProvider construye el provider y hace la carga inicial. Un archivo
// inexistente no es error: aplican solo los límites globales.
func NewFileProvider(path string, defaults Config, log *logger.Logger) (*FileProvider, error) {
	if err := defaults.Normalize(); err != nil {
		return nil, err
	}
	p := &FileProvider{path: path, defaults: defaults, log: log}
	cfg, err := p.load()
	if err != nil {
		return nil, err
	}
	p.current = cfg
	return p, nil
}

// Current devuelve la última configuración buena conocida.
func (p *FileProvider) Current() *Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// OnChange registra el callback que recibe cada configuración recargada
// (típicamente Limiter.SetConfig).
func (p *FileProvider) OnChange(fn func(*Config)) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

// Reload relee el archivo. Un archivo inválido deja la configuración anterior
// en su lugar y solo registra un warning: una recarga fallida jamás bloquea
// la admisión de peticiones.
func (p *FileProvider) Reload() error {
	cfg, err := p.load()
	if err != nil {
		p.log.Warn().Err(err).Str("path", p.path).
			Msg("recarga de overrides de rate limit fallida, se conserva la configuración anterior")
		return err
	}
	p.publish(cfg)
	return nil
}

// Watch vigila el archivo con fsnotify (vía Viper) y recarga en cada cambio.
// Si el archivo no existe todavía, no hay nada que vigilar.
func (p *FileProvider) Watch() {
	if _, err := os.Stat(p.path); err != nil {
		p.log.Info().Str("path", p.path).Msg("sin archivo de overrides de rate limit, no se vigila")
		return
	}
	v := viper.New()
	v.SetConfigFile(p.path)
	if err := v.ReadInConfig(); err != nil {
		p.log.Warn().Err(err).Msg("no se pudo iniciar la vigilancia del archivo de overrides")
		return
	}
	v.OnConfigChange(func(_ fsnotify.Event) {
		_ = p.Reload()
	})
	v.WatchConfig()
}

// Save reemplaza los overrides, los persiste en el archivo y publica la nueva
// configuración. La escritura es atómica (archivo temporal + rename) para que
// el watcher nunca lea un YAML a medias.
func (p *FileProvider) Save(overrides []Override) error {
	candidate := &Config{
		WindowSeconds: p.defaults.WindowSeconds,
		MaxRequests:   p.defaults.MaxRequests,
		Overrides:     overrides,
	}
	if err := candidate.Normalize(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("crear directorio de overrides: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	rows := make([]map[string]any, 0, len(overrides))
	for _, o := range overrides {
		rows = append(rows, map[string]any{
			"pattern":        o.Pattern,
			"max_requests":   o.MaxRequests,
			"window_seconds": o.WindowSeconds,
			"is_regex":       o.IsRegex,
		})
	}
	v.Set("overrides", rows)

	// El sufijo conserva la extensión .yaml: Viper deduce el formato de ahí.
	tmp := p.path + ".tmp.yaml"
	if err := v.WriteConfigAs(tmp); err != nil {
		return fmt.Errorf("escribir overrides: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("reemplazar archivo de overrides: %w", err)
	}

	p.current = candidate
	if p.onChange != nil {
		p.onChange(candidate)
	}
	return nil
}

// load lee el archivo y arma la Config completa (globales + overrides).
func (p *FileProvider) load() (*Config, error) {
	cfg := &Config{
		WindowSeconds: p.defaults.WindowSeconds,
		MaxRequests:   p.defaults.MaxRequests,
	}

	if _, err := os.Stat(p.path); err != nil {
		if os.IsNotExist(err) {
			_ = cfg.Normalize()
			return cfg, nil
		}
		return nil, fmt.Errorf("stat archivo de overrides: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(p.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("leer archivo de overrides: %w", err)
	}
	var overrides []Override
	if err := v.UnmarshalKey("overrides", &overrides); err != nil {
		return nil, fmt.Errorf("parsear overrides: %w", err)
	}
	cfg.Overrides = overrides
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (p *FileProvider) publish(cfg *Config) {
	p.mu.Lock()
	p.current = cfg
	fn := p.onChange
	p.mu.Unlock()
	if fn != nil {
		fn(cfg)
	}
}
