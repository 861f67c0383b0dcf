package demio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Parquet row kinds.
const (
	kindDEM   = "dem"
	kindPoint = "point"
)

// ReadYAML decodes a YAML document. Unknown keys are rejected.
func ReadYAML(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty YAML", ErrInvalidDocument)
		}
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// WriteYAML encodes doc as YAML.
func WriteYAML(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("yaml: %w", err)
	}
	return enc.Close()
}

// parquetRecord is one sample or point. DEM rows carry their own grid.
type parquetRecord struct {
	Kind        string    `parquet:"kind,dict"`
	Satellite   int32     `parquet:"satellite"`
	TimeMS      int64     `parquet:"time_ms"`
	Temperature []float64 `parquet:"temperature"`
	DEM         []float64 `parquet:"dem"`
	EM          float64   `parquet:"em"`
}

// WriteParquet encodes doc with zstd pages, samples first, then points.
func WriteParquet(w io.Writer, doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	sat := int32(doc.Satellite)
	rows := make([]parquetRecord, 0, len(doc.Samples)+len(doc.Points))
	for i, s := range doc.Samples {
		rows = append(rows, parquetRecord{
			Kind:        kindDEM,
			Satellite:   sat,
			TimeMS:      s.Time.UnixMilli(),
			Temperature: doc.Grid(i),
			DEM:         s.DEM,
		})
	}
	for _, p := range doc.Points {
		rows = append(rows, parquetRecord{
			Kind:        kindPoint,
			Satellite:   sat,
			TimeMS:      p.Time.UnixMilli(),
			Temperature: []float64{p.Temperature},
			EM:          p.EM,
		})
	}

	pw := parquet.NewGenericWriter[parquetRecord](w, parquet.Compression(&parquet.Zstd))
	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		return fmt.Errorf("parquet write: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("parquet close: %w", err)
	}
	return nil
}

// ReadParquet decodes a document written by WriteParquet. Every sample keeps
// its own grid; the document grid is left empty.
func ReadParquet(r io.ReaderAt, size int64) (*Document, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("parquet open: %w", err)
	}
	reader := parquet.NewGenericReader[parquetRecord](pf)
	defer reader.Close()

	doc := &Document{}
	buf := make([]parquetRecord, 256)
	first := true
	for {
		n, rerr := reader.Read(buf)
		for _, rec := range buf[:n] {
			if first {
				doc.Satellite = int(rec.Satellite)
				first = false
			} else if int(rec.Satellite) != doc.Satellite {
				return nil, fmt.Errorf("%w: mixed satellites %d and %d", ErrInvalidDocument, doc.Satellite, rec.Satellite)
			}
			ts := time.UnixMilli(rec.TimeMS).UTC()
			switch rec.Kind {
			case kindDEM:
				doc.Samples = append(doc.Samples, Sample{
					Time:        ts,
					Temperature: rec.Temperature,
					DEM:         rec.DEM,
				})
			case kindPoint:
				if len(rec.Temperature) != 1 {
					return nil, fmt.Errorf("%w: point row with %d temperatures", ErrInvalidDocument, len(rec.Temperature))
				}
				doc.Points = append(doc.Points, Point{Time: ts, Temperature: rec.Temperature[0], EM: rec.EM})
			default:
				return nil, fmt.Errorf("%w: unknown row kind %q", ErrInvalidDocument, rec.Kind)
			}
		}
		if errors.Is(rerr, io.EOF) || (rerr == nil && n == 0) {
			break
		}
		if rerr != nil {
			return nil, fmt.Errorf("parquet read: %w", rerr)
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func readParquetBytes(data []byte) (*Document, error) {
	return ReadParquet(bytes.NewReader(data), int64(len(data)))
}
