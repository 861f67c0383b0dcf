package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/ClickHouse/ch-go"
	"github.com/sirupsen/logrus"

	"github.com/KI7MT/goes-xrs-synth/internal/solar"
)

// NativeWriter inserts columnar blocks over the ch-go native protocol.
// A ch-go client is not safe for concurrent queries, so writes are serialized.
type NativeWriter struct {
	mu    sync.Mutex
	conn  *ch.Client
	table string
	batch *FluxBatch
	log   *logrus.Entry
}

// DialNative connects with LZ4 compression.
func DialNative(ctx context.Context, opts Options, log *logrus.Entry) (*NativeWriter, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	conn, err := ch.Dial(ctx, ch.Options{
		Address:     opts.Addr,
		Database:    opts.Database,
		User:        opts.User,
		Password:    opts.Password,
		Compression: ch.CompressionLZ4,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse dial %s: %w", opts.Addr, err)
	}
	return &NativeWriter{
		conn:  conn,
		table: opts.TableFQN(),
		batch: NewFluxBatch(),
		log:   log.WithField("table", opts.TableFQN()),
	}, nil
}

func (w *NativeWriter) EnsureTable(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.Do(ctx, ch.Query{Body: CreateTableSQL(w.table)}); err != nil {
		return fmt.Errorf("create table %s: %w", w.table, err)
	}
	return nil
}

func (w *NativeWriter) Truncate(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.log.Info("truncating")
	if err := w.conn.Do(ctx, ch.Query{Body: "TRUNCATE TABLE " + w.table}); err != nil {
		return fmt.Errorf("truncate %s: %w", w.table, err)
	}
	return nil
}

func (w *NativeWriter) Write(ctx context.Context, records []solar.FluxRecord) error {
	if len(records) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.batch.Reset()
	for _, r := range records {
		w.batch.Append(r)
	}
	if err := w.conn.Do(ctx, ch.Query{
		Body:  insertSQL(w.table),
		Input: w.batch.Input(),
	}); err != nil {
		return fmt.Errorf("insert %d rows: %w", len(records), err)
	}
	w.log.WithField("rows", len(records)).Debug("inserted")
	return nil
}

func (w *NativeWriter) Close() error {
	return w.conn.Close()
}
