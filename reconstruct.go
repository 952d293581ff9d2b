package recorder

import "math"

// Sample is one aligned pressure/temperature reading inside a page.
type Sample struct {
	Tick   uint32  `json:"tick"`
	TimeMs uint64  `json:"time_ms"`
	FP     float32 `json:"fp"`
	FT     float32 `json:"ft"`
}

// noValue is the frequency reported for a channel that has no records.
var noValue = float32(math.NaN())

// Reconstructor walks the two raw channels of a page on the common base
// clock. It is a small state machine: cursor positions, the last value
// seen on each channel, the next tick and a terminal flag.
//
// Tick 0 always reports the first record of each channel. On every later
// tick a channel whose divisor divides the tick must advance; if it has no
// record left the page is finished. A sample is emitted only on ticks where
// at least one channel advanced, and it always carries both latest values.
type Reconstructor struct {
	page *RawPage

	pPos, tPos int
	fp, ft     float32
	tick       uint32
	done       bool
}

// NewReconstructor returns a reconstructor positioned before tick 0.
func NewReconstructor(p *RawPage) *Reconstructor {
	r := &Reconstructor{page: p}
	r.Reset()
	return r
}

// Reset rewinds the reconstructor to tick 0.
func (r *Reconstructor) Reset() {
	r.pPos, r.tPos = 0, 0
	r.fp, r.ft = noValue, noValue
	r.tick = 0
	r.done = false
}

// Next returns the next sample, or false once the page is exhausted.
func (r *Reconstructor) Next() (Sample, bool) {
	if r.done {
		return Sample{}, false
	}
	h := r.page.Header

	if r.tick == 0 {
		if len(r.page.FP) > 0 {
			r.fp = r.page.FP[0].Freq
		}
		if len(r.page.FT) > 0 {
			r.ft = r.page.FT[0].Freq
		}
		r.tick = 1
		if h.InterleaveRatio[0] == 0 && h.InterleaveRatio[1] == 0 {
			r.done = true
		}
		return r.sampleAt(0), true
	}

	for {
		i := r.tick
		r.tick++

		advanced := false
		if due(i, h.InterleaveRatio[0]) {
			if !r.advancePressure() {
				r.done = true
				return Sample{}, false
			}
			advanced = true
		}
		if due(i, h.InterleaveRatio[1]) {
			if !r.advanceTemperature() {
				r.done = true
				return Sample{}, false
			}
			advanced = true
		}
		if advanced {
			return r.sampleAt(i), true
		}
	}
}

func (r *Reconstructor) advancePressure() bool {
	next := r.pPos + 1
	if next >= len(r.page.FP) {
		return false
	}
	r.pPos = next
	r.fp = r.page.FP[next].Freq
	return true
}

func (r *Reconstructor) advanceTemperature() bool {
	next := r.tPos + 1
	if next >= len(r.page.FT) {
		return false
	}
	r.tPos = next
	r.ft = r.page.FT[next].Freq
	return true
}

func (r *Reconstructor) sampleAt(tick uint32) Sample {
	h := r.page.Header
	return Sample{
		Tick:   tick,
		TimeMs: h.Timestamp + uint64(tick)*uint64(h.BaseIntervalMs),
		FP:     r.fp,
		FT:     r.ft,
	}
}

// due reports whether a channel with the given divisor samples on tick i.
// A zero divisor never samples.
func due(i, divisor uint32) bool {
	return divisor != 0 && i%divisor == 0
}

// Reconstruct returns every sample of the page in tick order.
func Reconstruct(p *RawPage) []Sample {
	r := NewReconstructor(p)
	out := make([]Sample, 0, max(len(p.FP), len(p.FT)))
	for {
		s, ok := r.Next()
		if !ok {
			return out
		}
		out = append(out, s)
	}
}
