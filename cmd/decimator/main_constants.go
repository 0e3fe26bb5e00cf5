package main

// Default command-line flag values
const (
	defaultInputRate   = 3072000.0 // 64 x 48 kHz sigma-delta clock
	defaultToneHz      = 1000.0    // 1 kHz test tone
	defaultAmplitude   = 0.01      // fraction of 16-bit full scale
	defaultOutputs     = 256       // output samples to produce
	defaultPassband    = 0.25      // compensator passband edge, fraction of CIC output rate
	defaultAttenuation = 60.0      // compensator window attenuation in dB
)

// Signal constants
const (
	fullScale16      = 32767.0
	quantToneLengths = 4 // quantisation test tone length, in bank lengths
)

// Upload retries
const (
	writeAttempts = 2 // a refused write lands on the following tick
)

// Dump layout
const (
	wordsPerDumpLine = 8
)
