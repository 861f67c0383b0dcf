package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/KI7MT/goes-xrs-synth/internal/solar"
)

// BatchWriter inserts through clickhouse-go's pooled batch API. Safe for
// concurrent use.
type BatchWriter struct {
	conn  driver.Conn
	table string
	log   *logrus.Entry
}

// OpenBatch opens a pooled connection and pings it.
func OpenBatch(ctx context.Context, opts Options, maxConns int, log *logrus.Entry) (*BatchWriter, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if maxConns < 1 {
		maxConns = 1
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.User,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 300,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		MaxOpenConns:    maxConns + 1,
		MaxIdleConns:    maxConns,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open %s: %w", opts.Addr, err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("clickhouse ping %s: %w", opts.Addr, err)
	}
	return &BatchWriter{
		conn:  conn,
		table: opts.TableFQN(),
		log:   log.WithField("table", opts.TableFQN()),
	}, nil
}

func (w *BatchWriter) EnsureTable(ctx context.Context) error {
	if err := w.conn.Exec(ctx, CreateTableSQL(w.table)); err != nil {
		return fmt.Errorf("create table %s: %w", w.table, err)
	}
	return nil
}

func (w *BatchWriter) Truncate(ctx context.Context) error {
	w.log.Info("truncating")
	if err := w.conn.Exec(ctx, "TRUNCATE TABLE "+w.table); err != nil {
		return fmt.Errorf("truncate %s: %w", w.table, err)
	}
	return nil
}

func (w *BatchWriter) Write(ctx context.Context, records []solar.FluxRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO "+w.table)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for i := range records {
		if err := batch.AppendStruct(&records[i]); err != nil {
			batch.Abort()
			return fmt.Errorf("append row %d: %w", i, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send %d rows: %w", len(records), err)
	}
	w.log.WithField("rows", len(records)).Debug("inserted")
	return nil
}

func (w *BatchWriter) Close() error {
	return w.conn.Close()
}
