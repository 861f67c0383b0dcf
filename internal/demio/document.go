// Package demio reads and writes the DEM and isothermal input documents
// consumed by xrs-synth and xrs-ingest.
package demio

import (
	"errors"
	"fmt"
	"time"

	"github.com/KI7MT/goes-xrs-synth/internal/ndarray"
)

// ErrInvalidDocument is wrapped by every validation failure.
var ErrInvalidDocument = errors.New("invalid document")

// Document is a time series of DEM samples and/or isothermal points for one
// spacecraft.
type Document struct {
	Satellite   int       `yaml:"satellite,omitempty"`
	Temperature []float64 `yaml:"temperature,omitempty"`
	Samples     []Sample  `yaml:"samples,omitempty"`
	Points      []Point   `yaml:"points,omitempty"`

	// Name identifies the source file; it is not serialized.
	Name string `yaml:"-"`
}

// Sample is one DEM [cm^-3 K^-1] on Temperature, or on the document grid
// when Temperature is empty.
type Sample struct {
	Time        time.Time `yaml:"time"`
	Temperature []float64 `yaml:"temperature,omitempty"`
	DEM         []float64 `yaml:"dem"`
}

// Point is an isothermal plasma at Temperature [K] with emission measure EM [cm^-3].
type Point struct {
	Time        time.Time `yaml:"time"`
	Temperature float64   `yaml:"temperature"`
	EM          float64   `yaml:"em"`
}

// Group is a run of consecutive samples sharing one temperature grid.
type Group struct {
	Temperature []float64
	Index       []int          // positions in Document.Samples
	DEM         *ndarray.Array // shape (len(Index), len(Temperature))
}

// Grid returns the temperature grid of sample i.
func (d *Document) Grid(i int) []float64 {
	if len(d.Samples[i].Temperature) > 0 {
		return d.Samples[i].Temperature
	}
	return d.Temperature
}

// Validate checks document structure. Grid monotonicity is left to the
// synthesizer, which reports it with its own error.
func (d *Document) Validate() error {
	if len(d.Samples) == 0 && len(d.Points) == 0 {
		return fmt.Errorf("%w: no samples or points", ErrInvalidDocument)
	}
	for i, s := range d.Samples {
		grid := d.Grid(i)
		if len(grid) == 0 {
			return fmt.Errorf("%w: sample %d has no temperature grid", ErrInvalidDocument, i)
		}
		if len(s.DEM) != len(grid) {
			return fmt.Errorf("%w: sample %d has %d DEM values for %d temperatures",
				ErrInvalidDocument, i, len(s.DEM), len(grid))
		}
	}
	return nil
}

// Groups batches consecutive samples that share a grid.
func (d *Document) Groups() ([]Group, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var groups []Group
	var cur *Group
	var data []float64
	flush := func() error {
		if cur == nil {
			return nil
		}
		arr, err := ndarray.New(data, len(cur.Index), len(cur.Temperature))
		if err != nil {
			return err
		}
		cur.DEM = arr
		groups = append(groups, *cur)
		cur, data = nil, nil
		return nil
	}

	for i, s := range d.Samples {
		grid := d.Grid(i)
		if cur != nil && !sameGrid(cur.Temperature, grid) {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		if cur == nil {
			cur = &Group{Temperature: grid}
		}
		cur.Index = append(cur.Index, i)
		data = append(data, s.DEM...)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return groups, nil
}

// PointArrays returns the temperatures and emission measures of all points
// as 1-D arrays.
func (d *Document) PointArrays() (temp, em *ndarray.Array) {
	t := make([]float64, len(d.Points))
	e := make([]float64, len(d.Points))
	for i, p := range d.Points {
		t[i] = p.Temperature
		e[i] = p.EM
	}
	return ndarray.Vector(t), ndarray.Vector(e)
}

func sameGrid(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
