package evolve

import "sync"

// parallelThreshold is the minimum population to evaluate in parallel.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 16

// workChunk is a range of genomes for a worker to evaluate.
type workChunk struct {
	start, end int
}

// evalPool is a persistent worker pool evaluating genome fitness. Workers
// only fill the memoised fitness of their own range; the engine reads the
// results after every chunk is done.
type evalPool struct {
	numWorkers int

	// Set for the duration of one evaluate call
	genomes []*Genome
	ev      *Evaluator

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newEvalPool(numWorkers int) *evalPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &evalPool{numWorkers: numWorkers}
}

// start launches persistent worker goroutines.
func (p *evalPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *evalPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *evalPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.computeChunk(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

func (p *evalPool) computeChunk(i0, i1 int) {
	for i := i0; i < i1; i++ {
		p.genomes[i].Fitness(p.ev)
	}
}

// evaluate computes the fitness of every genome and returns when all are
// done.
func (p *evalPool) evaluate(genomes []*Genome, ev *Evaluator) {
	p.genomes, p.ev = genomes, ev
	defer func() { p.genomes, p.ev = nil, nil }()

	n := len(genomes)
	if n < parallelThreshold || p.numWorkers == 1 {
		p.computeChunk(0, n)
		return
	}

	if !p.running {
		p.start()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}
