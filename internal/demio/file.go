package demio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
)

// Format is the container of a document file.
type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatParquet
)

// Compression wraps a document file.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

// DetectFormat classifies path by extension, e.g. "flare.yaml.zst" is
// (FormatYAML, CompressionZstd).
func DetectFormat(path string) (Format, Compression) {
	name := strings.ToLower(filepath.Base(path))
	comp := CompressionNone
	switch {
	case strings.HasSuffix(name, ".gz"):
		comp = CompressionGzip
		name = strings.TrimSuffix(name, ".gz")
	case strings.HasSuffix(name, ".zst"):
		comp = CompressionZstd
		name = strings.TrimSuffix(name, ".zst")
	}
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		return FormatYAML, comp
	case ".parquet":
		return FormatParquet, comp
	}
	return FormatUnknown, comp
}

// Open reads the document at path. Name is set to the file's base name.
func Open(path string) (*Document, error) {
	format, comp := DetectFormat(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%s: unsupported document type", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := readAll(f, comp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var doc *Document
	switch format {
	case FormatYAML:
		doc, err = ReadYAML(bytes.NewReader(data))
	case FormatParquet:
		doc, err = readParquetBytes(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Name = filepath.Base(path)
	return doc, nil
}

// Save writes doc to path in the format and compression named by its extension.
func Save(path string, doc *Document) error {
	format, comp := DetectFormat(path)
	if format == FormatUnknown {
		return fmt.Errorf("%s: unsupported document type", path)
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case FormatYAML:
		err = WriteYAML(&buf, doc)
	case FormatParquet:
		err = WriteParquet(&buf, doc)
	}
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeAll(f, comp, buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

func readAll(r io.Reader, comp Compression) ([]byte, error) {
	switch comp {
	case CompressionGzip:
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		return io.ReadAll(gz)
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		return io.ReadAll(dec)
	}
	return io.ReadAll(r)
}

func writeAll(w io.Writer, comp Compression, data []byte) error {
	var wc io.WriteCloser
	switch comp {
	case CompressionGzip:
		wc = pgzip.NewWriter(w)
	case CompressionZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		wc = enc
	default:
		_, err := w.Write(data)
		return err
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}
