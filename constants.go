package decimator

// Pipeline decimation limits (CIC factor)
const (
	minPipelineDecimation = 32
	maxPipelineDecimation = 512
)

// Register word widths
const (
	csrWordBits = 32 // width of one register word
)

// Streaming constants
const (
	defaultFIFOCapacity = 4096 // input FIFO size in samples
	maxStallTicks       = 64   // consecutive refused ticks before Process gives up
	flushSettleTicks    = 2    // idle ticks past the stage count before Flush stops
	maxFlushTicks       = 4096 // upper bound on ticks spent in one Flush
)

// Channel constants
const (
	stereoChannels = 2   // used by interleave helpers
	maxChannels    = 256 // maximum channel count for multichannel helpers
)

// stageCount is the number of pipeline stages: CIC, FIR and halfband.
const stageCount = 3
