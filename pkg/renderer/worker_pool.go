package renderer

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/shirou/gopsutil/cpu"
)

// DefaultWorkerCount returns the number of logical CPUs
func DefaultWorkerCount() int {
	if count, err := cpu.Counts(true); err == nil && count > 0 {
		return count
	}
	return runtime.NumCPU()
}

// BlockFunc fills a block. It returns false when it gave up part way, in
// which case the block is discarded.
type BlockFunc func(workerID int, block *RenderBlock) bool

// WorkerPool renders a fixed set of blocks in parallel. The task queue is
// filled in dispatch order and closed up front; completed blocks land on a
// results channel large enough to hold every block, so workers never block.
type WorkerPool struct {
	tasks      chan *RenderBlock
	results    chan *RenderBlock
	numWorkers int
	running    atomic.Bool
	started    atomic.Bool
	delivered  atomic.Int64
	wg         sync.WaitGroup
	done       chan struct{}
	finishOnce sync.Once
}

// NewWorkerPool creates a worker pool over blocks. A non-positive numWorkers
// selects DefaultWorkerCount.
func NewWorkerPool(blocks []*RenderBlock, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkerCount()
	}

	wp := &WorkerPool{
		tasks:      make(chan *RenderBlock, len(blocks)),
		results:    make(chan *RenderBlock, len(blocks)),
		numWorkers: numWorkers,
		done:       make(chan struct{}),
	}
	for _, block := range blocks {
		wp.tasks <- block
	}
	close(wp.tasks)
	wp.running.Store(true)

	return wp
}

// Start launches the workers. It must be called at most once and never
// concurrently with Stop.
func (wp *WorkerPool) Start(render BlockFunc) {
	if !wp.running.Load() {
		return
	}
	wp.started.Store(true)
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.run(i, render)
	}

	go func() {
		wp.wg.Wait()
		wp.finish()
	}()
}

// Running reports whether workers should keep producing blocks
func (wp *WorkerPool) Running() bool {
	return wp.running.Load()
}

// Stop asks the workers to stop, waits for them to exit and discards any
// blocks still buffered in the results channel. Safe to call repeatedly and
// before Start.
func (wp *WorkerPool) Stop() {
	wp.running.Store(false)
	if !wp.started.Load() {
		wp.finish()
	}
	<-wp.done

	for range wp.results {
	}
}

// Results returns the channel of completed blocks. It is closed once every
// worker has exited.
func (wp *WorkerPool) Results() <-chan *RenderBlock {
	return wp.results
}

// Done is closed once every worker has exited
func (wp *WorkerPool) Done() <-chan struct{} {
	return wp.done
}

// Delivered returns the number of blocks sent to the results channel
func (wp *WorkerPool) Delivered() int {
	return int(wp.delivered.Load())
}

// NumWorkers returns the number of workers in the pool
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

func (wp *WorkerPool) finish() {
	wp.finishOnce.Do(func() {
		close(wp.results)
		close(wp.done)
	})
}

// run is the main worker loop
func (wp *WorkerPool) run(id int, render BlockFunc) {
	defer wp.wg.Done()

	for block := range wp.tasks {
		if !wp.running.Load() {
			return
		}
		if !render(id, block) {
			return
		}
		// A stop requested while the block was rendering discards it
		if !wp.running.Load() {
			return
		}
		wp.results <- block
		wp.delivered.Add(1)
	}
}
