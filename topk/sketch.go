package topk

import (
	"sync"
	"time"

	"github.com/keilerkonzept/topk/sliding"
)

// SketchParams configures the sliding top-k sketch and the blocking policy
// layered on top of it.
type SketchParams struct {
	// K is the number of top talkers the sketch tracks.
	K int
	// WindowSize is the number of ticks a request stays in the window.
	WindowSize int
	// Width and Depth size the underlying count-min sketch.
	Width int
	Depth int
	// TickSize is the number of requests that trigger a tick and a top-k check.
	TickSize uint64
	// MaxSharePercent is the share of the window capacity a single key may
	// consume before it is reported.
	MaxSharePercent int
	// ActivationRPS gates reporting: below this request rate nothing is ever
	// reported, whatever the distribution looks like.
	ActivationRPS int
}

// TopKSketch wraps a sliding sketch with a mutex and a tick counter. Every
// TickSize observations it advances the window and reports keys whose count
// exceeds the allowed share, but only while the observed request rate is
// above ActivationRPS. Acts as a circuit breaker: distributed load spikes
// and quiet periods never produce reports.
type TopKSketch struct {
	mu              sync.Mutex
	sketch          *sliding.Sketch
	tickSize        uint64
	tickReq         uint64
	maxSharePercent int
	activationRPS   int
	threshold       uint32
	lastTickTime    time.Time
	reported        map[string]struct{}
}

func New(params SketchParams) *TopKSketch {
	if params.TickSize == 0 {
		params.TickSize = 1000
	}

	instance := sliding.New(params.K, params.WindowSize,
		sliding.WithWidth(params.Width), sliding.WithDepth(params.Depth))

	windowCapacity := uint64(params.WindowSize) * params.TickSize
	threshold := uint32((windowCapacity * uint64(params.MaxSharePercent)) / 100)

	return &TopKSketch{
		sketch:          instance,
		tickSize:        params.TickSize,
		maxSharePercent: params.MaxSharePercent,
		activationRPS:   params.ActivationRPS,
		threshold:       threshold,
		lastTickTime:    time.Now(),
		reported:        make(map[string]struct{}),
	}
}

// SizeBytes reports the memory footprint of the underlying sketch.
func (cs *TopKSketch) SizeBytes() int {
	return cs.sketch.SizeBytes()
}

// ProcessTick counts one request for key and returns the keys that crossed
// the share threshold when this request completed a tick, nil otherwise.
// Each key is reported at most once.
func (cs *TopKSketch) ProcessTick(key string) []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.sketch.Incr(key)
	cs.tickReq++

	if cs.tickReq < cs.tickSize {
		return nil
	}

	now := time.Now()
	elapsed := now.Sub(cs.lastTickTime)
	cs.lastTickTime = now
	cs.tickReq = 0
	cs.sketch.Tick()

	// A zero elapsed time means the tick completed faster than the clock
	// resolution, which is as high-rate as it gets.
	if elapsed > 0 {
		rps := float64(cs.tickSize) / elapsed.Seconds()
		if rps < float64(cs.activationRPS) {
			return nil
		}
	}

	var over []string
	for _, item := range cs.sketch.SortedSlice() {
		if item.Count <= cs.threshold {
			break // sorted, nothing further qualifies
		}
		if _, seen := cs.reported[item.Item]; seen {
			continue
		}
		cs.reported[item.Item] = struct{}{}
		over = append(over, item.Item)
	}
	return over
}
