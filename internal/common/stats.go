package common

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Stats holds atomic counters for ingest telemetry.
type Stats struct {
	TotalSamples        uint64 // Samples synthesized
	TotalRowsWritten    uint64 // Rows accepted by ClickHouse
	TotalBytesRead      uint64 // Input document bytes
	TotalFailures       uint64 // Documents that failed
	CurrentBatchLatency uint64 // Last insert latency in nanoseconds

	running  atomic.Bool
	stopCh   chan struct{}
	silent   bool
	interval time.Duration
	log      *logrus.Entry

	lastSamples uint64
	lastTime    time.Time

	// Moving average window for samples/s
	rateWindow []float64
	rateIndex  int
}

// NewStats creates a Stats reporting through log every 500ms.
func NewStats(log *logrus.Entry) *Stats {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Stats{
		interval:   500 * time.Millisecond,
		log:        log,
		rateWindow: make([]float64, 10), // 5 seconds
	}
}

func (s *Stats) AddSamples(n uint64) { atomic.AddUint64(&s.TotalSamples, n) }
func (s *Stats) AddRows(n uint64)    { atomic.AddUint64(&s.TotalRowsWritten, n) }
func (s *Stats) AddBytes(n uint64)   { atomic.AddUint64(&s.TotalBytesRead, n) }
func (s *Stats) AddFailure()         { atomic.AddUint64(&s.TotalFailures, 1) }

// SetBatchLatency records the latest insert latency.
func (s *Stats) SetBatchLatency(d time.Duration) {
	atomic.StoreUint64(&s.CurrentBatchLatency, uint64(d))
}

func (s *Stats) GetTotalSamples() uint64 { return atomic.LoadUint64(&s.TotalSamples) }
func (s *Stats) GetTotalRows() uint64    { return atomic.LoadUint64(&s.TotalRowsWritten) }
func (s *Stats) GetTotalBytes() uint64   { return atomic.LoadUint64(&s.TotalBytesRead) }
func (s *Stats) GetFailures() uint64     { return atomic.LoadUint64(&s.TotalFailures) }

// GetBatchLatency returns the latest insert latency.
func (s *Stats) GetBatchLatency() time.Duration {
	return time.Duration(atomic.LoadUint64(&s.CurrentBatchLatency))
}

// SetSilent enables or disables silent mode
func (s *Stats) SetSilent(silent bool) {
	s.silent = silent
}

// StartReporter starts a background goroutine that logs progress.
func (s *Stats) StartReporter() {
	if s.running.Swap(true) {
		return
	}
	s.lastTime = time.Now()
	s.lastSamples = 0
	s.stopCh = make(chan struct{})
	go s.reporterLoop(s.stopCh)
}

// StopReporter stops the background reporter goroutine
func (s *Stats) StopReporter() {
	if !s.running.Swap(false) {
		return
	}
	close(s.stopCh)
}

func (s *Stats) reporterLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.printStatus(time.Now())
		}
	}
}

// printStatus logs throughput since the previous tick.
func (s *Stats) printStatus(now time.Time) {
	if s.silent {
		return
	}
	rate, ok := s.tick(now)
	if !ok {
		return
	}
	s.log.WithFields(logrus.Fields{
		"samples_per_sec": rate,
		"avg_per_sec":     s.smoothedRate(),
		"batch_ms":        float64(s.GetBatchLatency()) / float64(time.Millisecond),
		"samples":         s.GetTotalSamples(),
		"rows":            s.GetTotalRows(),
		"failures":        s.GetFailures(),
	}).Info("progress")
}

// tick advances the rate window and returns the instantaneous rate.
func (s *Stats) tick(now time.Time) (float64, bool) {
	elapsed := now.Sub(s.lastTime).Seconds()
	if elapsed < 0.001 {
		return 0, false
	}
	current := s.GetTotalSamples()
	rate := float64(current-s.lastSamples) / elapsed

	s.rateWindow[s.rateIndex] = rate
	s.rateIndex = (s.rateIndex + 1) % len(s.rateWindow)

	s.lastSamples = current
	s.lastTime = now
	return rate, true
}

func (s *Stats) smoothedRate() float64 {
	var sum float64
	var count int
	for _, r := range s.rateWindow {
		if r > 0 {
			sum += r
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Reset resets all counters.
func (s *Stats) Reset() {
	atomic.StoreUint64(&s.TotalSamples, 0)
	atomic.StoreUint64(&s.TotalRowsWritten, 0)
	atomic.StoreUint64(&s.TotalBytesRead, 0)
	atomic.StoreUint64(&s.TotalFailures, 0)
	atomic.StoreUint64(&s.CurrentBatchLatency, 0)
	s.lastSamples = 0
	s.lastTime = time.Now()
	for i := range s.rateWindow {
		s.rateWindow[i] = 0
	}
	s.rateIndex = 0
}
