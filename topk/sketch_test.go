package topk

import (
	"reflect"
	"sort"
	"testing"
	"time"
)

func TestNewInitializesState(t *testing.T) {
	params := SketchParams{
		K:               10,
		WindowSize:      20,
		Width:           1024,
		Depth:           5,
		TickSize:        100,
		MaxSharePercent: 25,
		ActivationRPS:   500,
	}

	cs := New(params)

	if cs.tickSize != params.TickSize {
		t.Errorf("tickSize = %d, want %d", cs.tickSize, params.TickSize)
	}
	if cs.maxSharePercent != params.MaxSharePercent {
		t.Errorf("maxSharePercent = %d, want %d", cs.maxSharePercent, params.MaxSharePercent)
	}
	if cs.activationRPS != params.ActivationRPS {
		t.Errorf("activationRPS = %d, want %d", cs.activationRPS, params.ActivationRPS)
	}
	if cs.sketch == nil {
		t.Error("underlying sketch not initialized")
	}
}

// request is one ProcessTick call; sleep after it shapes the simulated rate.
type request struct {
	ip    string
	sleep time.Duration
}

// traffic builds total requests spread per the counts map, padded with a
// filler IP, each followed by sleep.
func traffic(total int, sleep time.Duration, counts map[string]int) []request {
	reqs := make([]request, 0, total)
	for ip, count := range counts {
		for i := 0; i < count; i++ {
			reqs = append(reqs, request{ip: ip, sleep: sleep})
		}
	}
	for len(reqs) < total {
		reqs = append(reqs, request{ip: "9.9.9.9", sleep: sleep})
	}
	return reqs
}

func concat(lists ...[]request) []request {
	var all []request
	for _, list := range lists {
		all = append(all, list...)
	}
	return all
}

func TestProcessTick(t *testing.T) {
	testCases := []struct {
		name     string
		params   SketchParams
		requests []request
		// every IP reported across all ticks
		wantReported []string
	}{
		{
			// A partial tick never reports.
			name: "BelowTickSize",
			params: SketchParams{
				K: 5, WindowSize: 10, Width: 1024, Depth: 3, TickSize: 100,
				ActivationRPS: 100, MaxSharePercent: 20,
			},
			requests:     traffic(99, 0, map[string]int{"1.1.1.1": 99}),
			wantReported: nil,
		},
		{
			// A fully dominant IP stays unreported while the overall rate
			// is below the activation gate. 100 requests over ~250ms is
			// about 400 RPS, under the 500 RPS threshold.
			name: "LowRateDominantIP",
			params: SketchParams{
				K: 5, WindowSize: 10, Width: 1024, Depth: 3, TickSize: 100,
				ActivationRPS: 500, MaxSharePercent: 20,
			},
			requests:     traffic(100, 2*time.Millisecond, map[string]int{"1.1.1.1": 100}),
			wantReported: nil,
		},
		{
			// High load with no single heavy talker must not report anyone.
			// Share threshold is 20% of the 1000-request window capacity.
			name: "HighRateEvenSpread",
			params: SketchParams{
				K: 5, WindowSize: 10, Width: 1024, Depth: 3, TickSize: 100,
				ActivationRPS: 500, MaxSharePercent: 20,
			},
			requests: traffic(1000, 0, map[string]int{
				"1.1.1.1": 199, "2.2.2.2": 199, "3.3.3.3": 199,
				"4.4.4.4": 199, "5.5.5.5": 199, "6.6.6.6": 5,
			}),
			wantReported: nil,
		},
		{
			name: "HighRateSingleHeavyTalker",
			params: SketchParams{
				K: 5, WindowSize: 10, Width: 1024, Depth: 3, TickSize: 100,
				ActivationRPS: 500, MaxSharePercent: 20,
			},
			requests:     traffic(1000, 0, map[string]int{"1.1.1.1": 201, "2.2.2.2": 799}),
			wantReported: []string{"1.1.1.1"},
		},
		{
			name: "HighRateTwoHeavyTalkers",
			params: SketchParams{
				K: 5, WindowSize: 10, Width: 1024, Depth: 3, TickSize: 100,
				ActivationRPS: 500, MaxSharePercent: 20,
			},
			requests: traffic(1000, 0, map[string]int{
				"1.1.1.1": 201, "2.2.2.2": 202, "3.3.3.3": 597,
			}),
			wantReported: []string{"1.1.1.1", "2.2.2.2"},
		},
		{
			// Tick state carries across the sequence: the slow middle tick
			// must not report its dominant IP, the fast ticks must.
			name: "RateGatePerTick",
			params: SketchParams{
				K: 5, WindowSize: 10, Width: 1024, Depth: 3, TickSize: 100,
				ActivationRPS: 500, MaxSharePercent: 20,
			},
			requests: concat(
				traffic(1000, 0, map[string]int{"1.1.1.1": 300, "2.2.2.2": 700}),
				traffic(100, 3*time.Millisecond, map[string]int{"3.3.3.3": 90, "4.4.4.4": 10}),
				traffic(1000, 0, map[string]int{"5.5.5.5": 400, "6.6.6.6": 600}),
			),
			wantReported: []string{"1.1.1.1", "5.5.5.5"},
		},
		{
			// Zero elapsed time between ticks must not divide by zero.
			name: "InstantaneousTick",
			params: SketchParams{
				K: 5, WindowSize: 10, Width: 1024, Depth: 3, TickSize: 100,
				ActivationRPS: 1, MaxSharePercent: 10,
			},
			requests:     traffic(1000, 0, map[string]int{"1.1.1.1": 101, "2.2.2.2": 899}),
			wantReported: []string{"1.1.1.1"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cs := New(tc.params)
			var reported []string

			for _, req := range tc.requests {
				reported = append(reported, cs.ProcessTick(req.ip)...)
				if req.sleep > 0 {
					time.Sleep(req.sleep)
				}
			}

			sort.Strings(reported)
			sort.Strings(tc.wantReported)

			if !reflect.DeepEqual(reported, tc.wantReported) {
				t.Errorf("reported IPs = %v, want %v", reported, tc.wantReported)
			}
		})
	}
}
