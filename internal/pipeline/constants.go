package pipeline

// Buffer sizing.
const (
	// minBufferCapacity is the smallest ring allocation.
	minBufferCapacity = 4

	// bufferGrowthFactor is the capacity multiplier applied on growth.
	bufferGrowthFactor = 2

	// interStageCapacity sizes the queue between two stages. A stage drains
	// at most one registered sample per tick, so a handful of slots covers
	// the longest stall.
	interStageCapacity = 8
)
