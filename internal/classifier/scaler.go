package classifier

import (
	"fmt"

	"github.com/oceanecho/oceanecho/internal/errors"
)

// Scaler types.
const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

// scalerFile is the on-disk scaler format.
type scalerFile struct {
	Type  string    `json:"type" yaml:"type"`
	Mean  []float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	Min   []float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Scale []float64 `json:"scale" yaml:"scale"`
}

// Scaler applies a fitted per-feature affine transform.
type Scaler struct {
	kind   string
	offset []float64 // mean for standard, min for minmax
	scale  []float64
}

// NewStandardScaler returns a scaler computing (x - mean) / scale. A nil mean
// skips centring; zero scales are treated as 1.
func NewStandardScaler(mean, scale []float64) (*Scaler, error) {
	if len(scale) == 0 {
		return nil, fmt.Errorf("standard scaler needs a non-empty scale")
	}
	if mean == nil {
		mean = make([]float64, len(scale))
	}
	if len(mean) != len(scale) {
		return nil, fmt.Errorf("standard scaler mean has %d values, scale has %d", len(mean), len(scale))
	}

	s := &Scaler{kind: ScalerStandard, offset: append([]float64(nil), mean...), scale: make([]float64, len(scale))}
	for i, v := range scale {
		if v == 0 {
			v = 1
		}
		s.scale[i] = v
	}
	return s, nil
}

// NewMinMaxScaler returns a scaler computing x * scale + min.
func NewMinMaxScaler(minimum, scale []float64) (*Scaler, error) {
	if len(scale) == 0 {
		return nil, fmt.Errorf("minmax scaler needs a non-empty scale")
	}
	if len(minimum) != len(scale) {
		return nil, fmt.Errorf("minmax scaler min has %d values, scale has %d", len(minimum), len(scale))
	}
	return &Scaler{
		kind:   ScalerMinMax,
		offset: append([]float64(nil), minimum...),
		scale:  append([]float64(nil), scale...),
	}, nil
}

// LoadScaler reads a scaler from a JSON or YAML file.
func LoadScaler(path string) (*Scaler, error) {
	var doc scalerFile
	if err := decodeDocument(path, &doc); err != nil {
		return nil, artifactError("scaler", path, errors.CategoryScalerLoad, err)
	}

	var (
		s   *Scaler
		err error
	)
	switch doc.Type {
	case ScalerStandard, "":
		s, err = NewStandardScaler(doc.Mean, doc.Scale)
	case ScalerMinMax:
		s, err = NewMinMaxScaler(doc.Min, doc.Scale)
	default:
		err = fmt.Errorf("unknown scaler type %q", doc.Type)
	}
	if err != nil {
		return nil, artifactError("scaler", path, errors.CategoryScalerLoad, err)
	}
	return s, nil
}

// Kind returns the scaler type.
func (s *Scaler) Kind() string { return s.kind }

// NumFeatures returns the fitted dimensionality.
func (s *Scaler) NumFeatures() int { return len(s.scale) }

// Transform scales a single feature vector. The input is not modified.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.scale) {
		return nil, dimensionError("scaler", len(s.scale), len(x))
	}

	out := make([]float64, len(x))
	switch s.kind {
	case ScalerMinMax:
		for i, v := range x {
			out[i] = v*s.scale[i] + s.offset[i]
		}
	default:
		for i, v := range x {
			out[i] = (v - s.offset[i]) / s.scale[i]
		}
	}
	return out, nil
}
