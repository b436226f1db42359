// Package clitest builds a CLI application over a throwaway SQLite
// container for command tests.
package clitest

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	internalApp "github.com/felixgeelhaar/preflight/internal/app"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/felixgeelhaar/preflight/pkg/config"
	"github.com/stretchr/testify/require"
)

// Provider returns a fixed observation and can be changed mid-test.
type Provider struct {
	id  weather.ProviderID
	mu  sync.Mutex
	obs weather.Observation
}

// NewProvider creates a provider reporting obs.
func NewProvider(id weather.ProviderID, obs weather.Observation) *Provider {
	return &Provider{id: id, obs: obs}
}

func (p *Provider) ID() weather.ProviderID { return p.id }

func (p *Provider) Current(_ context.Context, _ weather.Coordinate) (weather.Observation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	obs := p.obs.Clone()
	obs.Source = p.id
	obs.CapturedAt = time.Now()
	return obs, nil
}

// Set replaces the reported observation.
func (p *Provider) Set(obs weather.Observation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.obs = obs
}

// Clear is VFR weather every certification level accepts.
func Clear() weather.Observation {
	return weather.Observation{
		VisibilityMiles:  10,
		CeilingFeet:      weather.Float(8000),
		WindSpeedKnots:   5,
		WindDirectionDeg: 270,
		TemperatureC:     18,
		HumidityPct:      40,
		PressureHPa:      1015,
		Conditions:       []string{weather.ConditionClear},
	}
}

// Fog fails every certification level.
func Fog() weather.Observation {
	return weather.Observation{
		VisibilityMiles: 0.25,
		CeilingFeet:     weather.Float(100),
		WindSpeedKnots:  3,
		TemperatureC:    6,
		HumidityPct:     98,
		PressureHPa:     1012,
		Conditions:      []string{weather.ConditionFog},
	}
}

// Env is a wired CLI application.
type Env struct {
	App       *cli.App
	Container *internalApp.Container
	Weather   *Provider
}

// Setup builds an App backed by SQLite in a temp dir with both weather
// providers reporting obs, installs it with cli.SetApp and removes it on
// cleanup.
func Setup(t *testing.T, obs weather.Observation) *Env {
	t.Helper()

	cfg := &config.Config{
		AppEnv:                "test",
		LocalMode:             true,
		DatabaseDriver:        "sqlite",
		SQLitePath:            filepath.Join(t.TempDir(), "preflight.db"),
		LogLevel:              "error",
		ScanInterval:          time.Minute,
		ScanLookahead:         48 * time.Hour,
		RescheduleHorizonDays: 7,
		RescheduleTimezone:    "UTC",
		RescheduleTopN:        3,
		NotifyDedupeWindow:    9 * time.Minute,
		OutboxBatchSize:       10,
		OutboxMaxRetries:      3,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	provider := NewProvider("stub", obs)
	container, err := internalApp.NewLocalContainer(context.Background(), cfg, logger,
		internalApp.WithWeatherProviders(provider, provider))
	require.NoError(t, err)

	app := cli.NewAppFromContainer(container)
	cli.SetApp(app)
	t.Cleanup(func() {
		cli.SetApp(nil)
		container.Close()
	})
	return &Env{App: app, Container: container, Weather: provider}
}
