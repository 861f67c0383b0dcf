package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KI7MT/goes-xrs-synth/internal/common"
	"github.com/KI7MT/goes-xrs-synth/internal/demio"
	"github.com/KI7MT/goes-xrs-synth/internal/ndarray"
	"github.com/KI7MT/goes-xrs-synth/internal/response"
	"github.com/KI7MT/goes-xrs-synth/internal/response/responsetest"
	"github.com/KI7MT/goes-xrs-synth/internal/store"
	"github.com/KI7MT/goes-xrs-synth/internal/synth"
)

var t0 = time.Date(2017, 9, 6, 11, 53, 0, 0, time.UTC)

func flareDoc() *demio.Document {
	grid := []float64{3e6, 1e7, 2e7, 3e7}
	return &demio.Document{
		Name:        "flare.yaml",
		Temperature: grid,
		Samples: []demio.Sample{
			{Time: t0.Add(2 * time.Minute), DEM: []float64{1e42, 1e42, 1e41, 1e40}},
			{Time: t0, DEM: []float64{1e41, 1e41, 1e40, 1e39}},
		},
		Points: []demio.Point{
			{Time: t0.Add(time.Minute), Temperature: 1.5e7, EM: 1e49},
		},
	}
}

func TestSynthesize(t *testing.T) {
	ctx := context.Background()
	s := synth.New(responsetest.Provider())

	recs, err := Synthesize(ctx, s, flareDoc(), response.DefaultSatellite)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	for i := 1; i < len(recs); i++ {
		assert.False(t, recs[i].Time.Before(recs[i-1].Time))
	}
	assert.True(t, recs[1].Time.Equal(t0.Add(time.Minute)))
	for _, r := range recs {
		assert.Equal(t, uint8(17), r.Satellite)
		assert.Equal(t, "flare.yaml", r.Source)
		assert.Positive(t, r.Long)
	}

	iso, err := s.Isothermal(ctx, ndarray.Scalar(1.5e7), ndarray.Scalar(1e49), 17)
	require.NoError(t, err)
	want, err := iso.Long.Item()
	require.NoError(t, err)
	assert.Equal(t, want, recs[1].Long)

	// The later sample has ten times the DEM.
	assert.InEpsilon(t, 10*recs[0].Long, recs[2].Long, 1e-9)
}

func TestSynthesize_DocumentSatelliteWins(t *testing.T) {
	doc := flareDoc()
	doc.Satellite = 15
	recs, err := Synthesize(context.Background(), synth.New(responsetest.Provider()), doc, 17)
	require.NoError(t, err)
	assert.Equal(t, uint8(15), recs[0].Satellite)
}

func TestSynthesize_BadGrid(t *testing.T) {
	doc := flareDoc()
	doc.Temperature = []float64{3e7, 2e7, 1e7, 3e6}
	_, err := Synthesize(context.Background(), synth.New(responsetest.Provider()), doc, 17)
	assert.ErrorIs(t, err, synth.ErrShape)
}

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.yaml", "b.parquet.zst", "c.yaml.gz"} {
		p := filepath.Join(dir, name)
		require.NoError(t, demio.Save(p, flareDoc()))
		paths = append(paths, p)
	}
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("satellite: [\n"), 0o644))
	paths = append(paths, bad, filepath.Join(dir, "missing.yaml"))

	logger, _ := test.NewNullLogger()
	log := logrus.NewEntry(logger)
	w := store.NewDryRunWriter(log)
	stats := common.NewStats(log)

	r := &Runner{
		Synth:     synth.New(responsetest.Provider()),
		Writer:    w,
		Stats:     stats,
		Satellite: 17,
		Workers:   2,
		Log:       log,
	}
	sum := r.Run(context.Background(), paths)

	assert.Equal(t, 5, sum.Files)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, 9, sum.Records)
	assert.Equal(t, 9, w.Rows())
	assert.Equal(t, uint64(9), stats.GetTotalSamples())
	assert.Equal(t, uint64(9), stats.GetTotalRows())
	assert.Equal(t, uint64(2), stats.GetFailures())
	assert.Positive(t, stats.GetTotalBytes())
}

func TestRunner_Cancelled(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.yaml")
	require.NoError(t, demio.Save(p, flareDoc()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	logger, _ := test.NewNullLogger()
	w := store.NewDryRunWriter(logrus.NewEntry(logger))
	r := &Runner{Synth: synth.New(responsetest.Provider()), Writer: w, Log: logrus.NewEntry(logger)}
	sum := r.Run(ctx, []string{p})

	assert.Zero(t, sum.Files)
	assert.Zero(t, w.Rows())
}
