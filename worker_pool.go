// worker_pool.go - N persistent, barrier-synchronized synthesis workers.
//
// Two barriers mediate each block: a start barrier releasing workers to
// do their partition's work, and an end barrier the coordinator waits on
// before combining partial sums. Shutdown sets an atomic must_exit flag
// and shuts down both barriers so any parked worker — waiting now or in
// the future — is released.

package sp3ctra

import (
	"math"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool owns the fixed set of synthesis workers and the barriers
// that synchronize one block at a time.
type WorkerPool struct {
	Workers []*Worker

	startBarrier *Barrier
	endBarrier   *Barrier

	mustExit atomic.Bool
	wg       sync.WaitGroup

	nb           *NoteBank
	wb           atomic.Pointer[WaveformBank]
	blockSize    atomic.Int32
	stereo       atomic.Bool
	volWeightExp atomic.Uint64 // bits of a float32, for lock-free read

	fb  *FrameBuffer
	log Logger
}

// PartitionNotes splits [0, numNotes) into numWorkers disjoint,
// contiguous ranges covering the whole range exactly once.
func PartitionNotes(numNotes, numWorkers int) [][2]int {
	if numWorkers < 1 {
		numWorkers = 1
	}
	ranges := make([][2]int, numWorkers)
	base := numNotes / numWorkers
	rem := numNotes % numWorkers
	start := 0
	for i := 0; i < numWorkers; i++ {
		size := base
		if i < rem {
			size++
		}
		ranges[i] = [2]int{start, start + size}
		start += size
	}
	return ranges
}

// NewWorkerPool builds numWorkers persistent workers over numNotes notes,
// pre-sized for maxBufferSize samples per block. log receives
// priority-elevation-failure diagnostics; a nil log discards them.
func NewWorkerPool(nb *NoteBank, wb *WaveformBank, fb *FrameBuffer, numNotes, numWorkers, maxBufferSize int, log Logger) *WorkerPool {
	if log == nil {
		log = noopLogger{}
	}
	ranges := PartitionNotes(numNotes, numWorkers)
	wp := &WorkerPool{
		Workers:      make([]*Worker, numWorkers),
		startBarrier: NewBarrier(numWorkers + 1),
		endBarrier:   NewBarrier(numWorkers + 1),
		nb:           nb,
		fb:           fb,
		log:          log,
	}
	wp.wb.Store(wb)
	for i, r := range ranges {
		wp.Workers[i] = NewWorker(r[0], r[1], maxBufferSize)
	}
	return wp
}

// SetWaveformBank atomically swaps the shared waveform table, used by the
// hot-reload path. Must only be called while workers are parked between
// blocks.
func (wp *WorkerPool) SetWaveformBank(wb *WaveformBank) {
	wp.wb.Store(wb)
}

// Start launches the persistent worker goroutines. Each blocks on the
// start barrier, does its partition's work, then blocks on the end
// barrier, looping until shutdown.
func (wp *WorkerPool) Start() {
	for _, w := range wp.Workers {
		wp.wg.Add(1)
		go wp.runWorker(w)
	}
}

func (wp *WorkerPool) runWorker(w *Worker) {
	defer wp.wg.Done()
	runtime.LockOSThread()
	if err := elevateThreadPriority(); err != nil {
		wp.log.Printf("%v", newPriorityErr(err))
	}
	for {
		if wp.mustExit.Load() {
			return
		}
		if !wp.startBarrier.Wait() {
			return
		}
		if wp.mustExit.Load() {
			return
		}

		wp.fb.Mu.Lock()
		w.captureSnapshot(wp.fb.Snapshot())
		wp.fb.Mu.Unlock()

		blockSize := int(wp.blockSize.Load())
		stereo := wp.stereo.Load()
		volExp := math.Float32frombits(uint32(wp.volWeightExp.Load()))
		wb := wp.wb.Load()
		w.ProcessBlock(wp.nb, wb, blockSize, stereo, volExp)

		if !wp.endBarrier.Wait() {
			return
		}
	}
}

// DispatchBlock releases all workers to process one block of blockSize
// samples and waits for them to finish. Must be called from the single
// audio-processing coordinator goroutine, never concurrently.
func (wp *WorkerPool) DispatchBlock(blockSize int, stereo bool, volWeightExp float32) bool {
	wp.blockSize.Store(int32(blockSize))
	wp.stereo.Store(stereo)
	wp.volWeightExp.Store(uint64(math.Float32bits(volWeightExp)))

	if !wp.startBarrier.Wait() {
		return false
	}
	return wp.endBarrier.Wait()
}

// Shutdown sets must_exit and releases every barrier waiter, current and
// future, then waits for all worker goroutines to exit.
func (wp *WorkerPool) Shutdown() {
	wp.mustExit.Store(true)
	wp.startBarrier.Shutdown()
	wp.endBarrier.Shutdown()
	wp.wg.Wait()
}
