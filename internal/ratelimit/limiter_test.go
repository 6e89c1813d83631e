package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/pkg/logger"
)

func testConfig(t *testing.T, cfg Config) *Config {
	t.Helper()
	require.NoError(t, cfg.Normalize())
	return &cfg
}

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *time.Time) {
	t.Helper()
	l := New(testConfig(t, cfg), logger.NewNop())
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	clock := &now
	l.SetClock(func() time.Time { return *clock })
	return l, clock
}

func TestAdmit_RechazaAlExcederElLimite(t *testing.T) {
	l, _ := newTestLimiter(t, Config{WindowSeconds: 60, MaxRequests: 100})

	for i := 0; i < 100; i++ {
		d := l.Admit("client-a", "/api/stores/s1/inventory")
		require.True(t, d.Allowed, "petición %d debió entrar", i+1)
	}

	d := l.Admit("client-a", "/api/stores/s1/inventory")
	assert.False(t, d.Allowed)
	assert.Equal(t, 100, d.Limit)
	assert.Greater(t, d.RetryAfterSeconds, 0)
	assert.LessOrEqual(t, d.RetryAfterSeconds, 60)
}

func TestAdmit_LlavesIndependientes(t *testing.T) {
	l, _ := newTestLimiter(t, Config{WindowSeconds: 60, MaxRequests: 1})

	require.True(t, l.Admit("client-a", "/api/x").Allowed)
	assert.False(t, l.Admit("client-a", "/api/x").Allowed)

	// Otro cliente y otro endpoint tienen contadores propios.
	assert.True(t, l.Admit("client-b", "/api/x").Allowed)
	assert.True(t, l.Admit("client-a", "/api/y").Allowed)
}

func TestAdmit_VentanaVencidaReinicia(t *testing.T) {
	l, clock := newTestLimiter(t, Config{WindowSeconds: 60, MaxRequests: 2})

	require.True(t, l.Admit("c", "/api/x").Allowed)
	require.True(t, l.Admit("c", "/api/x").Allowed)
	require.False(t, l.Admit("c", "/api/x").Allowed)

	// Justo antes del vencimiento sigue rechazando.
	*clock = clock.Add(59 * time.Second)
	assert.False(t, l.Admit("c", "/api/x").Allowed)

	// Al vencer la ventana, el contador arranca de nuevo.
	*clock = clock.Add(1 * time.Second)
	d := l.Admit("c", "/api/x")
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}

func TestAdmit_RetryAfterDecreceConElTiempo(t *testing.T) {
	l, clock := newTestLimiter(t, Config{WindowSeconds: 60, MaxRequests: 1})

	require.True(t, l.Admit("c", "/api/x").Allowed)

	d := l.Admit("c", "/api/x")
	require.False(t, d.Allowed)
	assert.Equal(t, 60, d.RetryAfterSeconds)

	*clock = clock.Add(45 * time.Second)
	d = l.Admit("c", "/api/x")
	require.False(t, d.Allowed)
	assert.Equal(t, 15, d.RetryAfterSeconds)
}

func TestAdmit_OverrideGanaSobreElGlobal(t *testing.T) {
	l, _ := newTestLimiter(t, Config{
		WindowSeconds: 60,
		MaxRequests:   100,
		Overrides: []Override{
			{Pattern: "/auth", MaxRequests: 5},
		},
	})

	for i := 0; i < 5; i++ {
		require.True(t, l.Admit("c", "/api/auth/login").Allowed)
	}
	d := l.Admit("c", "/api/auth/login")
	assert.False(t, d.Allowed)
	assert.Equal(t, 5, d.Limit)

	// Un endpoint sin override sigue con el límite global.
	d = l.Admit("c", "/api/stores/s1/inventory")
	assert.True(t, d.Allowed)
	assert.Equal(t, 100, d.Limit)
}

func TestAdmit_OverrideRegexYPrimerMatchGana(t *testing.T) {
	l, _ := newTestLimiter(t, Config{
		WindowSeconds: 60,
		MaxRequests:   100,
		Overrides: []Override{
			{Pattern: `^/api/stores/[^/]+/stock/`, MaxRequests: 2, IsRegex: true},
			{Pattern: "/stock", MaxRequests: 50},
		},
	})

	// El primer override que matchea define el límite.
	d := l.Admit("c", "/api/stores/s1/stock/sale")
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Limit)
}

func TestAdmit_MatchCaseInsensitive(t *testing.T) {
	l, _ := newTestLimiter(t, Config{
		WindowSeconds: 60,
		MaxRequests:   100,
		Overrides: []Override{
			{Pattern: "/AUTH", MaxRequests: 1},
		},
	})

	require.True(t, l.Admit("c", "/api/auth/login").Allowed)
	assert.False(t, l.Admit("c", "/api/auth/login").Allowed)
}

func TestAdmit_ConcurrenciaNoExcedeElLimite(t *testing.T) {
	const limit = 50
	l, _ := newTestLimiter(t, Config{WindowSeconds: 60, MaxRequests: limit})

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Admit("c", "/api/x").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, allowed)
}

func TestSetConfig_NoReiniciaVentanasEnCurso(t *testing.T) {
	l, _ := newTestLimiter(t, Config{WindowSeconds: 60, MaxRequests: 3})

	require.True(t, l.Admit("c", "/api/x").Allowed)
	require.True(t, l.Admit("c", "/api/x").Allowed)

	// La recarga baja el límite; el contador acumulado se conserva.
	l.SetConfig(testConfig(t, Config{WindowSeconds: 60, MaxRequests: 2}))
	d := l.Admit("c", "/api/x")
	assert.False(t, d.Allowed)
	assert.Equal(t, 2, d.Limit)
}

func TestSweep_EliminaSoloBucketsVencidos(t *testing.T) {
	l, clock := newTestLimiter(t, Config{WindowSeconds: 60, MaxRequests: 10})

	l.Admit("c1", "/api/x")
	*clock = clock.Add(30 * time.Second)
	l.Admit("c2", "/api/x")
	require.Equal(t, 2, l.Len())

	// A los 60s del primero, solo ese venció.
	*clock = clock.Add(30 * time.Second)
	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Len())

	*clock = clock.Add(60 * time.Second)
	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 0, l.Len())
}

func TestSweep_RespetaLaVentanaDelOverride(t *testing.T) {
	l, clock := newTestLimiter(t, Config{
		WindowSeconds: 60,
		MaxRequests:   10,
		Overrides: []Override{
			{Pattern: "/auth", MaxRequests: 5, WindowSeconds: 300},
		},
	})

	l.Admit("c", "/api/auth/login")
	l.Admit("c", "/api/stores/s1/inventory")

	// A los 61s venció el bucket global pero no el del override (300s).
	*clock = clock.Add(61 * time.Second)
	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Len())
}

func TestNormalize_RechazaConfiguracionInvalida(t *testing.T) {
	bad := []Config{
		{WindowSeconds: 0, MaxRequests: 10},
		{WindowSeconds: 60, MaxRequests: 0},
		{WindowSeconds: 60, MaxRequests: 10, Overrides: []Override{{Pattern: "", MaxRequests: 1}}},
		{WindowSeconds: 60, MaxRequests: 10, Overrides: []Override{{Pattern: "/x", MaxRequests: 0}}},
		{WindowSeconds: 60, MaxRequests: 10, Overrides: []Override{{Pattern: "([", MaxRequests: 1, IsRegex: true}}},
	}
	for _, cfg := range bad {
		assert.Error(t, cfg.Normalize())
	}
}
