// Package myaudio decodes audio files into mono waveforms at the analysis sample rate.
//
// WAV and FLAC are decoded natively; every other container (mp3, ogg, m4a, ...)
// is handed to ffmpeg when it is available. Multi-channel input is averaged to
// mono and resampled to SampleRate.
package myaudio
