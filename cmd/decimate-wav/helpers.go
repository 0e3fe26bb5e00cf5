package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	decimator "github.com/tphakala/go-adc-decimator"
)

// wavInputInfo holds validated input file information.
type wavInputInfo struct {
	file         *os.File
	decoder      *wav.Decoder
	rate         int
	channels     int
	bitDepth     int
	totalSamples int64
	format       *audio.Format
}

// openWAVInput opens and validates a WAV file, returning format information.
func openWAVInput(path string, verbose bool) (*wavInputInfo, error) {
	inputFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(inputFile)
	if !decoder.IsValidFile() {
		_ = inputFile.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)
	switch bitDepth {
	case bitsPerSample16, bitsPerSample24, bitsPerSample32:
	default:
		_ = inputFile.Close()
		return nil, fmt.Errorf("unsupported bit depth %d (want 16, 24 or 32)", bitDepth)
	}

	if verbose {
		log.Printf("Input format: %d Hz, %d channels, %d-bit", format.SampleRate, format.NumChannels, bitDepth)
	}

	duration, err := decoder.Duration()
	if err != nil {
		duration = 0
	}

	return &wavInputInfo{
		file:         inputFile,
		decoder:      decoder,
		rate:         format.SampleRate,
		channels:     format.NumChannels,
		bitDepth:     bitDepth,
		totalSamples: int64(duration.Seconds() * float64(format.SampleRate)),
		format:       format,
	}, nil
}

// readFrames fills buf with the next chunk and trims it to whole frames.
// It returns the number of frames read; zero means end of data.
func (w *wavInputInfo) readFrames(buf *audio.IntBuffer) (int, error) {
	buf.Data = buf.Data[:cap(buf.Data)]
	n, err := w.decoder.PCMBuffer(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("failed to read audio data: %w", err)
	}
	frames := n / w.channels
	buf.Data = buf.Data[:frames*w.channels]
	return frames, nil
}

// Close closes the input file.
func (w *wavInputInfo) Close() error {
	return w.file.Close()
}

// createChannelDecimators creates one enabled decimator per channel.
func createChannelDecimators(numChannels int, cfg *decimator.Config) ([]*decimator.Decimator, error) {
	if numChannels < 1 {
		return nil, fmt.Errorf("invalid channel count %d", numChannels)
	}
	decimators := make([]*decimator.Decimator, numChannels)
	for ch := range numChannels {
		d, err := decimator.NewEnabled(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create decimator for channel %d: %w", ch, err)
		}
		decimators[ch] = d
	}
	return decimators, nil
}

// outputRateFor returns the output sample rate for a pipeline ratio.
func outputRateFor(inputRate int, ratio float64) int {
	return int(math.Round(float64(inputRate) * ratio))
}

// wavOutputWriter wraps the output file and its encoder.
type wavOutputWriter struct {
	file    *os.File
	encoder *wav.Encoder
	format  *audio.Format
}

// createWAVOutput creates a 24-bit PCM output file.
func createWAVOutput(path string, sampleRate, channels int) (*wavOutputWriter, error) {
	outputFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &wavOutputWriter{
		file:    outputFile,
		encoder: wav.NewEncoder(outputFile, sampleRate, outputBitDepth, channels, wavFormatPCM),
		format:  &audio.Format{NumChannels: channels, SampleRate: sampleRate},
	}, nil
}

// WriteSamples writes interleaved samples to the output file.
func (w *wavOutputWriter) WriteSamples(samples []int) error {
	if len(samples) == 0 {
		return nil
	}
	return w.encoder.Write(&audio.IntBuffer{
		Format:         w.format,
		Data:           samples,
		SourceBitDepth: outputBitDepth,
	})
}

// Close finalizes the WAV header and closes the file.
func (w *wavOutputWriter) Close() error {
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// decimateBuffers holds the preallocated read and per-channel buffers.
type decimateBuffers struct {
	intBuffer   *audio.IntBuffer
	channelBufs [][]int16
}

// newDecimateBuffers preallocates buffers for one chunk.
func newDecimateBuffers(channels int, format *audio.Format) *decimateBuffers {
	channelBufs := make([][]int16, channels)
	for ch := range channels {
		channelBufs[ch] = make([]int16, bufferSize)
	}
	return &decimateBuffers{
		intBuffer: &audio.IntBuffer{
			Data:   make([]int, bufferSize*channels),
			Format: format,
		},
		channelBufs: channelBufs,
	}
}

// toADCWord reduces a PCM sample to the 16-bit ADC word the decimator takes.
func toADCWord(sample, bitDepth int) int16 {
	return int16(sample >> (bitDepth - bitsPerSample16))
}

// deinterleaveInto splits interleaved PCM into per-channel 16-bit buffers.
func deinterleaveInto(data []int, channelBufs [][]int16, numChannels, frames, bitDepth int) {
	for i := range frames {
		base := i * numChannels
		for ch := range numChannels {
			channelBufs[ch][i] = toADCWord(data[base+ch], bitDepth)
		}
	}
}

// interleavePadded interleaves per-channel output, padding short channels
// with zeros. It returns the data and the frame count.
func interleavePadded(channels [][]int32) ([]int, int) {
	frames := 0
	for _, ch := range channels {
		frames = max(frames, len(ch))
	}
	if frames == 0 {
		return nil, 0
	}

	numChannels := len(channels)
	out := make([]int, frames*numChannels)
	for ch, samples := range channels {
		for i, s := range samples {
			out[i*numChannels+ch] = int(s)
		}
	}
	return out, frames
}

// progressTracker handles progress reporting.
type progressTracker struct {
	totalSamples int64
	lastProgress int
	verbose      bool
}

// newProgressTracker creates a new progress tracker.
func newProgressTracker(totalSamples int64, verbose bool) *progressTracker {
	return &progressTracker{
		totalSamples: totalSamples,
		verbose:      verbose,
	}
}

// reportIfNeeded reports progress if threshold crossed.
func (p *progressTracker) reportIfNeeded(currentSamples int64) {
	if !p.verbose || p.totalSamples == 0 {
		return
	}

	progress := int(float64(currentSamples) / float64(p.totalSamples) * percentScale)
	if progress >= p.lastProgress+progressInterval {
		log.Printf("Progress: %d%%", progress)
		p.lastProgress = progress
	}
}

// processChannelData runs each channel through its decimator.
func processChannelData(
	decimators []*decimator.Decimator,
	channelBufs [][]int16,
	frames int,
	parallel bool,
) ([][]int32, error) {
	if parallel && len(decimators) > 1 {
		return processParallel(decimators, channelBufs, frames)
	}
	return processSequential(decimators, channelBufs, frames)
}

// processParallel processes channels concurrently.
func processParallel(decimators []*decimator.Decimator, channelBufs [][]int16, frames int) ([][]int32, error) {
	out := make([][]int32, len(decimators))
	var wg sync.WaitGroup
	var processErr error
	var errMu sync.Mutex

	for ch := range decimators {
		wg.Add(1)
		go func(channel int) {
			defer wg.Done()
			result, err := decimators[channel].Process(channelBufs[channel][:frames])
			if err != nil {
				errMu.Lock()
				if processErr == nil {
					processErr = fmt.Errorf("decimation failed on channel %d: %w", channel, err)
				}
				errMu.Unlock()
				return
			}
			out[channel] = result
		}(ch)
	}
	wg.Wait()

	if processErr != nil {
		return nil, processErr
	}
	return out, nil
}

// processSequential processes channels one by one.
func processSequential(decimators []*decimator.Decimator, channelBufs [][]int16, frames int) ([][]int32, error) {
	out := make([][]int32, len(decimators))
	for ch, d := range decimators {
		result, err := d.Process(channelBufs[ch][:frames])
		if err != nil {
			return nil, fmt.Errorf("decimation failed on channel %d: %w", ch, err)
		}
		out[ch] = result
	}
	return out, nil
}

// flushChannels drains every decimator and interleaves the remainder.
func flushChannels(decimators []*decimator.Decimator) ([]int, int, error) {
	flushed := make([][]int32, len(decimators))
	for ch, d := range decimators {
		out, err := d.Flush()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to flush decimator channel %d: %w", ch, err)
		}
		flushed[ch] = out
	}
	data, n := interleavePadded(flushed)
	return data, n, nil
}
