package response

import (
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// parquetRow is the columnar export schema of a raw table row.
type parquetRow struct {
	Row      int32     `parquet:"row"`
	TempMK   []float64 `parquet:"temp_mk"`
	Log10EM  float64   `parquet:"alog10em"`
	LongCor  []float64 `parquet:"flong_cor"`
	ShortCor []float64 `parquet:"fshort_cor"`
	LongPho  []float64 `parquet:"flong_pho"`
	ShortPho []float64 `parquet:"fshort_pho"`
}

// WriteParquet exports every raw row of t, zstd-compressed.
func WriteParquet(w io.Writer, t *Table) error {
	pw := parquet.NewGenericWriter[parquetRow](w, parquet.Compression(&parquet.Zstd))

	rows := make([]parquetRow, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = parquetRow{
			Row:      int32(i),
			TempMK:   r.TempMK,
			Log10EM:  r.Log10EM,
			LongCor:  r.LongCor,
			ShortCor: r.ShortCor,
			LongPho:  r.LongPho,
			ShortPho: r.ShortPho,
		}
	}
	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		return fmt.Errorf("parquet write: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("parquet close: %w", err)
	}
	return nil
}

// ReadParquet loads a table written by WriteParquet. Rows are placed by
// their stored row index, so file order does not matter.
func ReadParquet(r io.ReaderAt, size int64) (*Table, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("parquet open: %w", err)
	}

	reader := parquet.NewGenericReader[parquetRow](pf)
	defer reader.Close()

	var all []parquetRow
	buf := make([]parquetRow, 64)
	for {
		n, err := reader.Read(buf)
		all = append(all, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parquet read: %w", err)
		}
		if n == 0 {
			break
		}
	}

	t := &Table{Rows: make([]RawRow, len(all))}
	seen := make([]bool, len(all))
	for _, pr := range all {
		i := int(pr.Row)
		if i < 0 || i >= len(all) || seen[i] {
			return nil, fmt.Errorf("parquet: bad or duplicate row index %d", pr.Row)
		}
		seen[i] = true
		t.Rows[i] = RawRow{
			TempMK:   pr.TempMK,
			Log10EM:  pr.Log10EM,
			LongCor:  pr.LongCor,
			ShortCor: pr.ShortCor,
			LongPho:  pr.LongPho,
			ShortPho: pr.ShortPho,
		}
	}
	return t, nil
}
