package ratelimit

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/Kardex-api/pkg/logger"
)

// shardCount reparte las llaves en mapas independientes para que la admisión
// de llaves distintas no se serialice en un solo mutex. Potencia de dos.
const shardCount = 32

// bucket contador de ventana fija para una llave (cliente, endpoint).
// Un bucket cuya ventana ya venció se trata como ausente.
type bucket struct {
	count       int
	windowStart time.Time
}

type shard struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

// Decision resultado de una admisión.
type Decision struct {
	Allowed           bool
	Limit             int
	Remaining         int
	RetryAfterSeconds int // solo con Allowed=false; siempre >= 1
}

// Limiter controlador de admisión por ventana fija, con estado en memoria del
// proceso. Es un componente inyectable con estado propio, no un singleton:
// cada instancia tiene su mapa y su configuración.
type Limiter struct {
	shards [shardCount]*shard
	cfg    atomic.Pointer[Config]
	now    func() time.Time
	log    *logger.Logger
}

// New construye el limiter. cfg debe venir normalizada (Config.Normalize).
func New(cfg *Config, log *logger.Logger) *Limiter {
	l := &Limiter{now: time.Now, log: log}
	for i := range l.shards {
		l.shards[i] = &shard{buckets: make(map[string]*bucket)}
	}
	l.cfg.Store(cfg)
	return l
}

// SetConfig publica una configuración nueva. Las admisiones en vuelo siguen
// con la anterior; las siguientes ven la nueva (atomic swap, sin locks).
func (l *Limiter) SetConfig(cfg *Config) {
	l.cfg.Store(cfg)
}

// Config devuelve la configuración vigente.
func (l *Limiter) Config() *Config {
	return l.cfg.Load()
}

// SetClock reemplaza el reloj (tests).
func (l *Limiter) SetClock(now func() time.Time) {
	l.now = now
}

// Admit decide si la petición de clientID sobre path entra en la ventana
// actual. El incremento y la comparación ocurren bajo el lock del shard, de
// modo que dos peticiones concurrentes no pueden ambas observar "bajo el
// límite" y colarse.
func (l *Limiter) Admit(clientID, path string) Decision {
	cfg := l.cfg.Load()
	limit, window := cfg.Resolve(path)
	key := clientID + "|" + path
	now := l.now()

	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || now.Sub(b.windowStart) >= window {
		// Ventana nueva (o bucket vencido, lógicamente ausente): cuenta en 1.
		s.buckets[key] = &bucket{count: 1, windowStart: now}
		return Decision{Allowed: true, Limit: limit, Remaining: limit - 1}
	}

	b.count++
	if b.count > limit {
		remaining := window - now.Sub(b.windowStart)
		retry := int(math.Ceil(remaining.Seconds()))
		if retry < 1 {
			retry = 1
		}
		return Decision{Allowed: false, Limit: limit, RetryAfterSeconds: retry}
	}
	return Decision{Allowed: true, Limit: limit, Remaining: limit - b.count}
}

// Sweep elimina los buckets cuya ventana ya venció y devuelve cuántos quitó.
// Recorre shard por shard para no frenar las admisiones en los demás.
func (l *Limiter) Sweep() int {
	cfg := l.cfg.Load()
	now := l.now()
	removed := 0
	for _, s := range l.shards {
		s.mu.Lock()
		for key, b := range s.buckets {
			_, window := cfg.Resolve(pathFromKey(key))
			if now.Sub(b.windowStart) >= window {
				delete(s.buckets, key)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// StartSweeper lanza el barrido periódico en background hasta que el contexto
// se cancele. Corre aparte del manejo de peticiones y nunca bloquea una
// decisión de admisión más allá del lock puntual de cada shard.
func (l *Limiter) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := l.Sweep(); n > 0 {
					l.log.Debug().Int("removed", n).Msg("barrido de buckets de rate limit")
				}
			}
		}
	}()
}

// Len cantidad total de buckets vivos (tests y diagnóstico).
func (l *Limiter) Len() int {
	total := 0
	for _, s := range l.shards {
		s.mu.Lock()
		total += len(s.buckets)
		s.mu.Unlock()
	}
	return total
}

func (l *Limiter) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return l.shards[h.Sum32()&(shardCount-1)]
}

// pathFromKey recupera el endpoint de la llave "cliente|path" para resolver la
// ventana del override que le aplica.
func pathFromKey(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == '|' {
			return key[i+1:]
		}
	}
	return key
}
