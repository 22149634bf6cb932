package build

import "sync/atomic"

// StepsPerProject is the number of progress steps a built project reports:
// content loaded, script generated, script written.
const StepsPerProject = 3

// progress counts completed steps across concurrent project builds and
// forwards fractions to a single consumer goroutine. Fractions delivered to
// the sink never decrease even when increments are observed out of order.
type progress struct {
	total int64
	count atomic.Int64
	ch    chan float64
	done  chan struct{}
}

// newProgress starts the consumer. sink may be nil.
func newProgress(total int, sink func(float64)) *progress {
	p := &progress{
		total: int64(total),
		// One slot per possible step, so producers never block.
		ch:   make(chan float64, total),
		done: make(chan struct{}),
	}

	go p.consume(sink)

	return p
}

func (p *progress) consume(sink func(float64)) {
	defer close(p.done)

	highest := 0.0

	for value := range p.ch {
		highest = max(highest, value)

		if sink != nil {
			sink(highest)
		}
	}
}

// step records one completed step.
func (p *progress) step() {
	if p.total == 0 {
		return
	}

	n := p.count.Add(1)
	p.ch <- float64(n) / float64(p.total)
}

// close stops accepting steps and waits until the sink has seen every value.
func (p *progress) close() {
	close(p.ch)
	<-p.done
}
