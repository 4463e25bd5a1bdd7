package features

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// dctMatrix returns the first n rows of the orthonormal DCT-II basis of size size.
func dctMatrix(n, size int) *mat.Dense {
	basis := mat.NewDense(n, size, nil)
	for k := range n {
		scale := math.Sqrt(2.0 / float64(size))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(size))
		}
		for j := range size {
			basis.Set(k, j, scale*math.Cos(math.Pi*float64(k)*float64(2*j+1)/float64(2*size)))
		}
	}
	return basis
}

// mfcc computes NumMFCC cepstral coefficients per frame from a mel power spectrogram.
func mfcc(mel *mat.Dense) *mat.Dense {
	rows, _ := mel.Dims()
	var out mat.Dense
	out.Mul(dctMatrix(NumMFCC, rows), powerToDB(mel))
	return &out
}
