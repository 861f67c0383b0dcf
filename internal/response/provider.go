package response

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/pgzip"

	"github.com/KI7MT/goes-xrs-synth/internal/fetch"
)

// DefaultQuery pins the SolarSoft GOES CHIANTI response table.
var DefaultQuery = fetch.Query{
	URL:    "https://sohoftp.nascom.nasa.gov/solarsoft/gen/idl/synoptic/goes/goes_chianti_response_latest.fits",
	SHA256: "cb00c05850e3dc3bbd856eb07c1a372758d689d0845ee591d6e2531afeab0382",
}

// Loader produces the raw response table.
type Loader func(ctx context.Context) (*Table, error)

// FileLoader loads the table from a local path (see LoadFile).
func FileLoader(path string) Loader {
	return func(ctx context.Context) (*Table, error) {
		return LoadFile(path)
	}
}

// FetchLoader downloads and verifies q with d, then loads it.
func FetchLoader(d *fetch.Downloader, q fetch.Query) Loader {
	return func(ctx context.Context) (*Table, error) {
		path, err := d.Fetch(ctx, q)
		if err != nil {
			return nil, err
		}
		return LoadFile(path)
	}
}

// StaticLoader returns t on every call.
func StaticLoader(t *Table) Loader {
	return func(ctx context.Context) (*Table, error) {
		return t, nil
	}
}

// LoadFile reads a response table, choosing the decoder by extension:
// .parquet, .fits.gz / .fts.gz (parallel gzip), otherwise plain FITS.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".parquet"):
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		return ReadParquet(f, info.Size())

	case strings.HasSuffix(lower, ".gz"):
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		data, err := io.ReadAll(gz)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return ReadFITS(bytes.NewReader(data))

	default:
		return ReadFITS(f)
	}
}

// Provider hands out per-satellite responses from a lazily loaded table.
// The first successful load is kept for the provider's lifetime; a failed
// load is returned to the caller and attempted again on the next call.
type Provider struct {
	load Loader

	mu    sync.Mutex
	table *Table
}

// NewProvider creates a Provider backed by load.
func NewProvider(load Loader) *Provider {
	return &Provider{load: load}
}

// Table returns the raw table, loading it on first use.
func (p *Provider) Table(ctx context.Context) (*Table, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.table != nil {
		return p.table, nil
	}
	t, err := p.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load response table: %w", err)
	}
	p.table = t
	return t, nil
}

// Response returns the coronal-abundance response of satellite.
func (p *Provider) Response(ctx context.Context, satellite int) (Response, error) {
	return p.ResponseFor(ctx, satellite, Coronal)
}

// ResponseFor returns the response of satellite for the given abundance.
func (p *Provider) ResponseFor(ctx context.Context, satellite int, abundance Abundance) (Response, error) {
	t, err := p.Table(ctx)
	if err != nil {
		return Response{}, err
	}
	return t.Response(satellite, abundance)
}

// View is a Provider fixed to one abundance set.
type View struct {
	p         *Provider
	abundance Abundance
}

// With returns a view of p whose Response uses abundance.
func (p *Provider) With(abundance Abundance) View {
	return View{p: p, abundance: abundance}
}

// Response returns the response of satellite for the view's abundance.
func (v View) Response(ctx context.Context, satellite int) (Response, error) {
	return v.p.ResponseFor(ctx, satellite, v.abundance)
}
