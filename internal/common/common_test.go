package common

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KI7MT/goes-xrs-synth/internal/response"
)

func TestDefaultConfig_Env(t *testing.T) {
	t.Setenv("XRS_DATA_DIR", "/tmp/xrs")
	t.Setenv("XRS_SATELLITE", "16")
	t.Setenv("CLICKHOUSE_PORT", "19000")
	t.Setenv("XRS_RESPONSE_URL", "")

	cfg := DefaultConfig()
	assert.Equal(t, "/tmp/xrs", cfg.DataDir)
	assert.Equal(t, 16, cfg.Satellite)
	assert.Equal(t, 19000, cfg.ClickHousePort)
	assert.Equal(t, response.DefaultQuery, cfg.ResponseQuery())
}

func TestDefaultConfig_BadIntFallsBack(t *testing.T) {
	t.Setenv("XRS_SATELLITE", "seventeen")
	assert.Equal(t, response.DefaultSatellite, DefaultConfig().Satellite)
}

func TestDefaultDataDir(t *testing.T) {
	t.Setenv("XRS_DATA_DIR", "")
	assert.Equal(t, "goes_xrs_synthesis", filepath.Base(DefaultConfig().DataDir))
}

func TestLoadConfig_Overlay(t *testing.T) {
	t.Setenv("CLICKHOUSE_HOST", "")
	path := filepath.Join(t.TempDir(), "xrs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("satellite: 15\ntable: flux\nclickhouse_database: goes\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Satellite)
	assert.Equal(t, "goes.flux", cfg.TableFQN())
	assert.Equal(t, "localhost:9000", cfg.ClickHouseAddr())
}

func TestLoadConfig_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("satelite: 15\n"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStats_Counters(t *testing.T) {
	s := NewStats(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddSamples(10)
			s.AddRows(10)
			s.AddBytes(100)
		}()
	}
	wg.Wait()
	s.AddFailure()
	s.SetBatchLatency(3 * time.Millisecond)

	assert.Equal(t, uint64(80), s.GetTotalSamples())
	assert.Equal(t, uint64(80), s.GetTotalRows())
	assert.Equal(t, uint64(800), s.GetTotalBytes())
	assert.Equal(t, uint64(1), s.GetFailures())
	assert.Equal(t, 3*time.Millisecond, s.GetBatchLatency())

	s.Reset()
	assert.Zero(t, s.GetTotalSamples())
	assert.Zero(t, s.GetFailures())
}

func TestStats_PrintStatus(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewStats(logrus.NewEntry(logger))
	start := time.Now()
	s.lastTime = start
	s.AddSamples(500)

	s.printStatus(start.Add(time.Second))
	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, "progress", entry.Message)
	assert.InDelta(t, 500.0, entry.Data["samples_per_sec"], 1e-9)
	assert.Equal(t, uint64(500), entry.Data["samples"])

	// Same instant: no division, no log line.
	s.printStatus(start.Add(time.Second))
	assert.Len(t, hook.AllEntries(), 1)

	s.SetSilent(true)
	s.printStatus(start.Add(2 * time.Second))
	assert.Len(t, hook.AllEntries(), 1)
}

func TestStats_ReporterStartStop(t *testing.T) {
	s := NewStats(nil)
	s.SetSilent(true)
	s.StartReporter()
	s.StartReporter()
	s.StopReporter()
	s.StopReporter()

	// A stopped reporter can be started again.
	s.StartReporter()
	s.StopReporter()
}
