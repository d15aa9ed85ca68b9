package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"guardplan/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultPlannerIsValid(t *testing.T) {
	p, err := LoadPlanner("")
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, p.Stagger)
	assert.Len(t, p.Stages, 8)
	assert.Equal(t, 10, p.Placer.MaxAttempts)

	specs, err := p.KindSpecs()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultKindSpecs(), specs)
}

func TestLoadPlannerOverlaysYAML(t *testing.T) {
	path := writeFile(t, "planner.yaml", `
estimator:
  guard_min: 12
placer:
  max_attempts: 4
stagger: 50ms
stage_delay_scale: 0
kinds:
  guard:
    min_separation: 45
  radio:
    strategy: corners
`)

	p, err := LoadPlanner(path)
	require.NoError(t, err)

	assert.Equal(t, 12, p.Estimator.GuardMin)
	assert.Equal(t, 5000.0, p.Estimator.GuardAreaQuantum)
	assert.Equal(t, 4, p.Placer.MaxAttempts)
	assert.Equal(t, 30.0, p.Placer.BaseOffset)
	assert.Equal(t, 50*time.Millisecond, p.Stagger)
	assert.Zero(t, p.StageDelayScale)

	specs, err := p.KindSpecs()
	require.NoError(t, err)
	assert.Equal(t, 45.0, specs[model.KindGuard].MinSeparation)
	assert.Equal(t, model.StrategyPerimeter, specs[model.KindGuard].Strategy)
	assert.Equal(t, model.StrategyCorners, specs[model.KindRadio].Strategy)
	assert.Equal(t, 80.0, specs[model.KindRadio].MinSeparation)
}

func TestLoadPlannerStages(t *testing.T) {
	path := writeFile(t, "planner.yaml", `
stages:
  - name: scan
    progress: 50
    message: Scanning
    delay: 1s
  - name: done
    progress: 100
    message: Done
    delay: 250ms
`)

	p, err := LoadPlanner(path)
	require.NoError(t, err)
	require.Len(t, p.Stages, 2)
	assert.Equal(t, "scan", p.Stages[0].Name)
	assert.Equal(t, time.Second, p.Stages[0].Delay)
	assert.Equal(t, 250*time.Millisecond, p.Stages[1].Delay)
}

func TestLoadPlannerRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown kind":        "kinds:\n  tank:\n    min_separation: 5\n",
		"unknown strategy":    "kinds:\n  guard:\n    strategy: manual\n",
		"negative attempts":   "placer:\n  max_attempts: -1\n",
		"zero area":           "estimator:\n  area_per_person: 0\n",
		"stages not rising":   "stages:\n  - {name: a, progress: 60}\n  - {name: b, progress: 40}\n  - {name: c, progress: 100}\n",
		"stages short of 100": "stages:\n  - {name: a, progress: 60}\n",
	}
	for name, content := range cases {
		_, err := LoadPlanner(writeFile(t, "planner.yaml", content))
		assert.Error(t, err, name)
	}

	_, err := LoadPlanner(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigDefaultsAndEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("APP_ENV", "test")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LOG_FORMAT", "json")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.Port)
	assert.Equal(t, "redis://localhost:6379/0", c.RedisUrl)
	assert.Equal(t, "guardplan:events", c.RedisChannel)
	assert.Equal(t, "json", c.LogFormat)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.RequireMapSurface)
}

// chdir mirrors testing.T.Chdir (Go 1.24+): changes directory and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
