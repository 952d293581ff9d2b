package recorder

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(start float32, n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{Freq: start + float32(i)}
	}
	return out
}

func testPage(ratio [2]uint32, fp, ft []Record) *RawPage {
	return &RawPage{
		Header: Header{
			ThisBlockID:     7,
			PrevBlockID:     6,
			Timestamp:       60_000,
			BaseIntervalMs:  250,
			InterleaveRatio: ratio,
		},
		Consistent: true,
		FP:         fp,
		FT:         ft,
	}
}

func ticks(samples []Sample) []uint32 {
	out := make([]uint32, len(samples))
	for i, s := range samples {
		out[i] = s.Tick
	}
	return out
}

func TestReconstructEqualRatios(t *testing.T) {
	const n = 5
	p := testPage([2]uint32{1, 1}, seq(100, n), seq(200, n))

	samples := Reconstruct(p)
	require.Len(t, samples, n)
	for i, s := range samples {
		assert.Equal(t, uint32(i), s.Tick)
		assert.Equal(t, uint64(60_000+i*250), s.TimeMs)
		assert.Equal(t, float32(100+i), s.FP)
		assert.Equal(t, float32(200+i), s.FT)
	}
}

func TestReconstructPressureEveryOtherTick(t *testing.T) {
	p := testPage([2]uint32{2, 1}, seq(100, 3), seq(200, 10))

	samples := Reconstruct(p)
	want := []Sample{
		{Tick: 0, TimeMs: 60_000, FP: 100, FT: 200},
		{Tick: 1, TimeMs: 60_250, FP: 100, FT: 201},
		{Tick: 2, TimeMs: 60_500, FP: 101, FT: 202},
		{Tick: 3, TimeMs: 60_750, FP: 101, FT: 203},
		{Tick: 4, TimeMs: 61_000, FP: 102, FT: 204},
		{Tick: 5, TimeMs: 61_250, FP: 102, FT: 205},
	}
	assert.Equal(t, want, samples)
}

func TestReconstructStopsWhenEitherChannelRunsOut(t *testing.T) {
	p := testPage([2]uint32{1, 1}, seq(100, 5), seq(200, 2))

	samples := Reconstruct(p)
	assert.Equal(t, []uint32{0, 1}, ticks(samples))
	assert.Equal(t, float32(101), samples[1].FP)
}

func TestReconstructSkipsSilentTicks(t *testing.T) {
	p := testPage([2]uint32{2, 3}, seq(100, 10), seq(200, 10))

	samples := Reconstruct(p)
	assert.Equal(t, []uint32{0, 2, 3, 4, 6, 8, 9, 10, 12, 14, 15, 16, 18}, ticks(samples))

	// Tick 3 carries the pressure value read at tick 2.
	assert.Equal(t, Sample{Tick: 3, TimeMs: 60_750, FP: 101, FT: 201}, samples[2])
}

func TestReconstructEmptyChannel(t *testing.T) {
	p := testPage([2]uint32{1, 1}, nil, seq(200, 4))

	samples := Reconstruct(p)
	require.Len(t, samples, 1)
	assert.True(t, math.IsNaN(float64(samples[0].FP)))
	assert.Equal(t, float32(200), samples[0].FT)
}

func TestReconstructZeroDivisors(t *testing.T) {
	t.Run("both zero", func(t *testing.T) {
		p := testPage([2]uint32{0, 0}, seq(100, 4), seq(200, 4))
		assert.Equal(t, []uint32{0}, ticks(Reconstruct(p)))
	})
	t.Run("pressure zero", func(t *testing.T) {
		p := testPage([2]uint32{0, 1}, seq(100, 4), seq(200, 3))
		samples := Reconstruct(p)
		assert.Equal(t, []uint32{0, 1, 2}, ticks(samples))
		for _, s := range samples {
			assert.Equal(t, float32(100), s.FP)
		}
	})
}

func TestReconstructorResetRestarts(t *testing.T) {
	p := testPage([2]uint32{1, 2}, seq(100, 6), seq(200, 3))
	r := NewReconstructor(p)

	var first []Sample
	for s, ok := r.Next(); ok; s, ok = r.Next() {
		first = append(first, s)
	}
	_, ok := r.Next()
	assert.False(t, ok, "exhausted reconstructor must stay exhausted")

	r.Reset()
	var second []Sample
	for s, ok := r.Next(); ok; s, ok = r.Next() {
		second = append(second, s)
	}
	assert.Equal(t, first, second)
	assert.Equal(t, Reconstruct(p), first)
}

func TestReconstructLargeTimestamp(t *testing.T) {
	p := testPage([2]uint32{1, 1}, seq(1, 3), seq(1, 3))
	p.Header.Timestamp = 1 << 40
	p.Header.BaseIntervalMs = math.MaxUint32

	samples := Reconstruct(p)
	require.Len(t, samples, 3)
	assert.Equal(t, uint64(1<<40)+2*uint64(math.MaxUint32), samples[2].TimeMs)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		page RawPage
		want PageClass
	}{
		{"consistent", RawPage{Header: Header{ThisBlockID: 4, PrevBlockID: 3}, Consistent: true}, PageReportable},
		{"corrupted", RawPage{Header: Header{ThisBlockID: 4, PrevBlockID: 3}}, PageCorrupted},
		{"half sentinel", RawPage{Header: Header{ThisBlockID: SentinelBlockID, PrevBlockID: 3}}, PageCorrupted},
		{"empty flash", RawPage{Header: Header{ThisBlockID: SentinelBlockID, PrevBlockID: SentinelBlockID}}, PageNoData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.page))
		})
	}

	assert.True(t, Header{}.IsSessionStart())
	assert.True(t, Header{PrevBlockID: SentinelBlockID}.IsSentinel())
	assert.False(t, Header{ThisBlockID: 1}.IsSessionStart())
}
