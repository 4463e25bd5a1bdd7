// Package features turns a mono waveform into the fixed-length acoustic
// feature vector consumed by the classifier.
//
// The vector concatenates per-frame averages of MFCCs, mel-band energies
// and chroma with scalar spectral, energy and pitch summaries. All
// frame-based measures share one framing: 2048-sample periodic Hann
// windows, a 512-sample hop and centered frames. The numeric conventions
// match the extractor the bundled model artifacts were fit against, so
// the order and units of every element are part of the model contract.
package features
