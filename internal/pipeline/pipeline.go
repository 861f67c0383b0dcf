// Package pipeline turns input documents into flux records and feeds them to
// a store writer with a bounded pool of file workers.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KI7MT/goes-xrs-synth/internal/common"
	"github.com/KI7MT/goes-xrs-synth/internal/demio"
	"github.com/KI7MT/goes-xrs-synth/internal/solar"
	"github.com/KI7MT/goes-xrs-synth/internal/store"
	"github.com/KI7MT/goes-xrs-synth/internal/synth"
)

// DefaultWorkers is the number of documents processed concurrently.
const DefaultWorkers = 4

// Synthesize returns one record per DEM sample and isothermal point of doc,
// ordered by time. doc.Satellite wins over satellite when set.
func Synthesize(ctx context.Context, s *synth.Synthesizer, doc *demio.Document, satellite int) ([]solar.FluxRecord, error) {
	if doc.Satellite != 0 {
		satellite = doc.Satellite
	}
	groups, err := doc.Groups()
	if err != nil {
		return nil, err
	}

	records := make([]solar.FluxRecord, 0, len(doc.Samples)+len(doc.Points))
	for _, g := range groups {
		flux, err := s.DEM(ctx, g.Temperature, g.DEM, 1, satellite)
		if err != nil {
			return nil, fmt.Errorf("samples %d..%d: %w", g.Index[0], g.Index[len(g.Index)-1], err)
		}
		long, short := flux.Long.Raw(), flux.Short.Raw()
		for k, i := range g.Index {
			records = append(records, solar.NewFluxRecord(doc.Samples[i].Time, satellite, long[k], short[k], doc.Name))
		}
	}

	if len(doc.Points) > 0 {
		temp, em := doc.PointArrays()
		flux, err := s.Isothermal(ctx, temp, em, satellite)
		if err != nil {
			return nil, fmt.Errorf("points: %w", err)
		}
		long, short := flux.Long.Raw(), flux.Short.Raw()
		for i, p := range doc.Points {
			records = append(records, solar.NewFluxRecord(p.Time, satellite, long[i], short[i], doc.Name))
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Time.Before(records[j].Time)
	})
	return records, nil
}

// Runner ingests document files.
type Runner struct {
	Synth     *synth.Synthesizer
	Writer    store.Writer
	Stats     *common.Stats
	Satellite int
	Workers   int
	Log       *logrus.Entry
}

// Summary reports the outcome of Run.
type Summary struct {
	Files   int
	Failed  int
	Records int
	Elapsed time.Duration
}

// Run processes paths with at most r.Workers files in flight. A failing file
// is logged and counted; it does not stop the others. Run stops scheduling
// new files once ctx is done.
func (r *Runner) Run(ctx context.Context, paths []string) Summary {
	workers := r.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}
	log := r.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	start := time.Now()
	var mu sync.Mutex
	sum := Summary{}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

schedule:
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break schedule
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(fp string) {
			defer wg.Done()
			defer func() { <-sem }()

			n, err := r.processFile(ctx, fp, log.WithField("file", filepath.Base(fp)))
			mu.Lock()
			sum.Files++
			sum.Records += n
			if err != nil {
				sum.Failed++
			}
			mu.Unlock()
		}(path)
	}
	wg.Wait()

	sum.Elapsed = time.Since(start)
	return sum
}

func (r *Runner) processFile(ctx context.Context, path string, log *logrus.Entry) (int, error) {
	started := time.Now()

	fail := func(stage string, err error) (int, error) {
		log.WithError(err).Errorf("%s failed", stage)
		if r.Stats != nil {
			r.Stats.AddFailure()
		}
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fail("stat", err)
	}
	doc, err := demio.Open(path)
	if err != nil {
		return fail("read", err)
	}
	records, err := Synthesize(ctx, r.Synth, doc, r.Satellite)
	if err != nil {
		return fail("synthesize", err)
	}
	if r.Stats != nil {
		r.Stats.AddBytes(uint64(info.Size()))
		r.Stats.AddSamples(uint64(len(records)))
	}

	writeStart := time.Now()
	if err := r.Writer.Write(ctx, records); err != nil {
		return fail("write", err)
	}
	if r.Stats != nil {
		r.Stats.SetBatchLatency(time.Since(writeStart))
		r.Stats.AddRows(uint64(len(records)))
	}

	log.WithFields(logrus.Fields{
		"records": len(records),
		"elapsed": time.Since(started).Round(time.Millisecond),
	}).Info("ingested")
	return len(records), nil
}
