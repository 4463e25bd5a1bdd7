package features

import "fmt"

// Framing parameters shared by every frame-based measure.
const (
	NFFT      = 2048
	HopLength = 512
	NumBins   = NFFT/2 + 1
)

// Sub-feature sizes.
const (
	NumMFCC   = 13
	NumMel    = 128
	NumChroma = 12
)

// Offsets of each sub-feature inside a Vector.
const (
	OffsetMFCC      = 0
	OffsetMel       = OffsetMFCC + NumMFCC
	OffsetChroma    = OffsetMel + NumMel
	OffsetCentroid  = OffsetChroma + NumChroma
	OffsetBandwidth = OffsetCentroid + 1
	OffsetContrast  = OffsetBandwidth + 1
	OffsetRolloff   = OffsetContrast + 1
	OffsetRMS       = OffsetRolloff + 1
	OffsetZCR       = OffsetRMS + 1
	OffsetPitch     = OffsetZCR + 1

	// VectorLen is the length of every extracted feature vector.
	VectorLen = OffsetPitch + 1
)

var chromaNames = [NumChroma]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Vector is one extracted feature vector in the fixed layout above.
type Vector []float64

func (v Vector) MFCC() []float64   { return v[OffsetMFCC:OffsetMel] }
func (v Vector) Mel() []float64    { return v[OffsetMel:OffsetChroma] }
func (v Vector) Chroma() []float64 { return v[OffsetChroma:OffsetCentroid] }

func (v Vector) Centroid() float64  { return v[OffsetCentroid] }
func (v Vector) Bandwidth() float64 { return v[OffsetBandwidth] }
func (v Vector) Contrast() float64  { return v[OffsetContrast] }
func (v Vector) Rolloff() float64   { return v[OffsetRolloff] }
func (v Vector) RMS() float64       { return v[OffsetRMS] }
func (v Vector) ZCR() float64       { return v[OffsetZCR] }
func (v Vector) Pitch() float64     { return v[OffsetPitch] }

// Names returns a column name for every element of a Vector, in order.
func Names() []string {
	names := make([]string, 0, VectorLen)
	for i := range NumMFCC {
		names = append(names, fmt.Sprintf("mfcc_%d", i))
	}
	for i := range NumMel {
		names = append(names, fmt.Sprintf("mel_%d", i))
	}
	for _, c := range chromaNames {
		names = append(names, "chroma_"+c)
	}
	return append(names,
		"spectral_centroid",
		"spectral_bandwidth",
		"spectral_contrast",
		"spectral_rolloff",
		"rms",
		"zcr",
		"pitch",
	)
}
