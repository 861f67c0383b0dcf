// Package store writes synthesized flux records to ClickHouse.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ClickHouse/ch-go/proto"
	"github.com/sirupsen/logrus"

	"github.com/KI7MT/goes-xrs-synth/internal/solar"
)

// Writer persists flux records.
type Writer interface {
	EnsureTable(ctx context.Context) error
	Truncate(ctx context.Context) error
	Write(ctx context.Context, records []solar.FluxRecord) error
	Close() error
}

// Options configures a ClickHouse connection.
type Options struct {
	Addr     string // host:port, native protocol
	Database string
	User     string
	Password string
	Table    string // without database
}

// TableFQN returns database.table.
func (o Options) TableFQN() string {
	return fmt.Sprintf("%s.%s", o.Database, o.Table)
}

// Column names, in insert order.
var columns = []string{"time", "satellite", "xray_long", "xray_short", "class", "source"}

// CreateTableSQL returns the DDL for the flux table.
func CreateTableSQL(tableFQN string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    time       DateTime64(3),
    satellite  UInt8,
    xray_long  Float64,
    xray_short Float64,
    class      String,
    source     String
) ENGINE = MergeTree
ORDER BY (satellite, time)`, tableFQN)
}

func insertSQL(tableFQN string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES", tableFQN, strings.Join(columns, ", "))
}

// FluxBatch holds column data for native insert.
type FluxBatch struct {
	Time      *proto.ColDateTime64
	Satellite *proto.ColUInt8
	Long      *proto.ColFloat64
	Short     *proto.ColFloat64
	Class     *proto.ColStr
	Source    *proto.ColStr
}

func NewFluxBatch() *FluxBatch {
	return &FluxBatch{
		Time:      new(proto.ColDateTime64).WithPrecision(proto.PrecisionMilli),
		Satellite: new(proto.ColUInt8),
		Long:      new(proto.ColFloat64),
		Short:     new(proto.ColFloat64),
		Class:     new(proto.ColStr),
		Source:    new(proto.ColStr),
	}
}

func (b *FluxBatch) Reset() {
	b.Time.Reset()
	b.Satellite.Reset()
	b.Long.Reset()
	b.Short.Reset()
	b.Class.Reset()
	b.Source.Reset()
}

func (b *FluxBatch) Len() int {
	return b.Satellite.Rows()
}

func (b *FluxBatch) Input() proto.Input {
	return proto.Input{
		{Name: "time", Data: b.Time},
		{Name: "satellite", Data: b.Satellite},
		{Name: "xray_long", Data: b.Long},
		{Name: "xray_short", Data: b.Short},
		{Name: "class", Data: b.Class},
		{Name: "source", Data: b.Source},
	}
}

func (b *FluxBatch) Append(r solar.FluxRecord) {
	b.Time.Append(r.Time)
	b.Satellite.Append(r.Satellite)
	b.Long.Append(r.Long)
	b.Short.Append(r.Short)
	b.Class.Append(r.Class)
	b.Source.Append(r.Source)
}

// DryRunWriter counts and logs records without a database.
type DryRunWriter struct {
	mu   sync.Mutex
	rows int
	log  *logrus.Entry
}

func NewDryRunWriter(log *logrus.Entry) *DryRunWriter {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &DryRunWriter{log: log}
}

func (w *DryRunWriter) EnsureTable(ctx context.Context) error { return nil }
func (w *DryRunWriter) Truncate(ctx context.Context) error    { return nil }
func (w *DryRunWriter) Close() error                          { return nil }

func (w *DryRunWriter) Write(ctx context.Context, records []solar.FluxRecord) error {
	for _, r := range records {
		w.log.WithFields(logrus.Fields{
			"time":      r.Time,
			"satellite": r.Satellite,
			"long":      r.Long,
			"short":     r.Short,
			"class":     r.Class,
			"source":    r.Source,
		}).Debug("dry-run row")
	}
	w.mu.Lock()
	w.rows += len(records)
	w.mu.Unlock()
	return nil
}

// Rows returns the number of records written so far.
func (w *DryRunWriter) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}
