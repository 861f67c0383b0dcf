package response

import (
	"fmt"
	"io"
	"reflect"

	"github.com/astrogo/fitsio"
)

// responseHDU is the index of the binary table extension holding the rows.
const responseHDU = 1

// ReadFITS decodes the response table from a FITS stream.
func ReadFITS(r io.Reader) (*Table, error) {
	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("open fits: %w", err)
	}
	defer f.Close()

	if n := len(f.HDUs()); n <= responseHDU {
		return nil, fmt.Errorf("fits: expected a table extension, found %d HDU(s)", n)
	}
	tbl, ok := f.HDU(responseHDU).(*fitsio.Table)
	if !ok {
		return nil, fmt.Errorf("fits: HDU %d is not a table", responseHDU)
	}

	required := []string{ColTempMK, ColLog10EM, ColLongCor, ColShortCor}
	for _, name := range required {
		if tbl.Index(name) < 0 {
			return nil, fmt.Errorf("fits: missing column %s", name)
		}
	}
	withPho := tbl.Index(ColLongPho) >= 0 && tbl.Index(ColShortPho) >= 0

	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, fmt.Errorf("fits: read rows: %w", err)
	}
	defer rows.Close()

	out := &Table{}
	for rows.Next() {
		rec := make(map[string]interface{}, 6)
		for _, name := range required {
			rec[name] = nil
		}
		if withPho {
			rec[ColLongPho] = nil
			rec[ColShortPho] = nil
		}
		if err := rows.Scan(&rec); err != nil {
			return nil, fmt.Errorf("fits: scan row %d: %w", len(out.Rows), err)
		}

		row, err := rawRowFromRecord(rec, withPho)
		if err != nil {
			return nil, fmt.Errorf("fits: row %d: %w", len(out.Rows), err)
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fits: %w", err)
	}
	return out, nil
}

func rawRowFromRecord(rec map[string]interface{}, withPho bool) (RawRow, error) {
	var (
		row RawRow
		err error
	)
	if row.TempMK, err = toFloats(rec[ColTempMK]); err != nil {
		return row, fmt.Errorf("%s: %w", ColTempMK, err)
	}
	em, err := toFloats(rec[ColLog10EM])
	if err != nil {
		return row, fmt.Errorf("%s: %w", ColLog10EM, err)
	}
	if len(em) != 1 {
		return row, fmt.Errorf("%s: want a scalar, got %d values", ColLog10EM, len(em))
	}
	row.Log10EM = em[0]
	if row.LongCor, err = toFloats(rec[ColLongCor]); err != nil {
		return row, fmt.Errorf("%s: %w", ColLongCor, err)
	}
	if row.ShortCor, err = toFloats(rec[ColShortCor]); err != nil {
		return row, fmt.Errorf("%s: %w", ColShortCor, err)
	}
	if withPho {
		if row.LongPho, err = toFloats(rec[ColLongPho]); err != nil {
			return row, fmt.Errorf("%s: %w", ColLongPho, err)
		}
		if row.ShortPho, err = toFloats(rec[ColShortPho]); err != nil {
			return row, fmt.Errorf("%s: %w", ColShortPho, err)
		}
	}
	return row, nil
}

// toFloats flattens a FITS cell (scalar, fixed-size array or slice of any
// numeric kind) into float64 values.
func toFloats(v interface{}) ([]float64, error) {
	if v == nil {
		return nil, fmt.Errorf("missing value")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array, reflect.Slice:
		out := make([]float64, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			x, err := numeric(rv.Index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, nil
	default:
		x, err := numeric(rv)
		if err != nil {
			return nil, err
		}
		return []float64{x}, nil
	}
}

func numeric(rv reflect.Value) (float64, error) {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Interface:
		return numeric(rv.Elem())
	}
	return 0, fmt.Errorf("unsupported cell type %s", rv.Type())
}
