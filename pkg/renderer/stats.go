package renderer

import "time"

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Rays            uint64        // Rays cast against the scene so far
	CompletedBlocks int           // Blocks delivered to the results channel
	TotalBlocks     int           // Blocks in the frame
	Elapsed         time.Duration // Wall time since Start, frozen once rendering ends
	Workers         int           // Worker goroutines
	Width, Height   int
	SamplesPerPixel int
}

// RaysPerSecond returns the ray throughput over the elapsed time
func (s RenderStats) RaysPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Rays) / s.Elapsed.Seconds()
}

// Progress returns the completed fraction of blocks in [0, 1]
func (s RenderStats) Progress() float64 {
	if s.TotalBlocks == 0 {
		return 0
	}
	return float64(s.CompletedBlocks) / float64(s.TotalBlocks)
}

// Complete reports whether every block was delivered
func (s RenderStats) Complete() bool {
	return s.TotalBlocks > 0 && s.CompletedBlocks == s.TotalBlocks
}
