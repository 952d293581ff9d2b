package recorder

import (
	"math"
	"strings"
	"testing"

	"github.com/lucasjlepore/recorder-decode/calibration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeChain(t *testing.T) {
	pages := pagesWithMarkers(5, 1)
	pages[3].Consistent = false
	pages[4].Consistent = false
	pages[4].Header.ThisBlockID = SentinelBlockID
	pages[4].Header.PrevBlockID = SentinelBlockID

	var series ChainSeries
	nan := float32(math.NaN())
	series.Append(1000, 1.0, 20)
	series.Append(2000, 3.0, nan)
	series.Append(3000, 5.0, 22)
	series.Append(4000, 200, 24)

	profile := &calibration.Profile{
		PressureUnit: calibration.Bar,
		PWorkRange:   calibration.WorkRange{Minimum: 0, Maximum: 100},
		TWorkRange:   calibration.WorkRange{Minimum: 0, Maximum: 23},
	}
	c := Chain{Number: 1, Start: 1, Stop: 5}
	sum := SummarizeChain(c, pages, series, profile)

	assert.Equal(t, 4, sum.Pages)
	assert.Equal(t, 2, sum.ReportablePages)
	assert.Equal(t, 1, sum.CorruptedPages)
	assert.Equal(t, 1, sum.NoDataPages)
	assert.Equal(t, uint32(0), sum.FirstBlockID)
	assert.Equal(t, uint32(SentinelBlockID), sum.LastBlockID)
	assert.Equal(t, uint64(1000), sum.StartMs)
	assert.Equal(t, uint64(4000), sum.EndMs)
	assert.Equal(t, "Bar", sum.PressureUnit)

	assert.Equal(t, 4, sum.Pressure.Count)
	assert.Equal(t, 1.0, sum.Pressure.Min)
	assert.Equal(t, 200.0, sum.Pressure.Max)
	assert.InDelta(t, 52.25, sum.Pressure.Mean, 1e-9)
	assert.Equal(t, 1, sum.Pressure.OutOfRange)

	assert.Equal(t, 3, sum.Temperature.Count)
	assert.Equal(t, 1, sum.Temperature.Skipped)
	assert.InDelta(t, 22.0, sum.Temperature.Mean, 1e-9)
	assert.InDelta(t, 2.0, sum.Temperature.StdDev, 1e-9)
	assert.Equal(t, 1, sum.Temperature.OutOfRange)
}

func TestChannelStatsEdgeCases(t *testing.T) {
	st := channelStats([]float64{math.NaN(), math.Inf(1)}, calibration.WorkRange{})
	assert.Equal(t, ChannelStats{Skipped: 2}, st)

	st = channelStats([]float64{7}, calibration.WorkRange{Minimum: 0, Maximum: 10})
	assert.Equal(t, ChannelStats{Count: 1, Min: 7, Max: 7, Mean: 7}, st)
}

func TestFormatDurationMs(t *testing.T) {
	tests := map[uint64]string{
		0:           "00:00:00.000",
		1:           "00:00:00.001",
		61_001:      "00:01:01.001",
		3_600_000:   "01:00:00.000",
		90_000_000:  "25:00:00.000",
		359_999_999: "99:59:59.999",
	}
	for ms, want := range tests {
		assert.Equal(t, want, FormatDurationMs(ms), "ms=%d", ms)
	}
}

func TestBuildRunNotes(t *testing.T) {
	notes := BuildRunNotes(RunNotes{
		Serial:          17,
		CalibrationDate: "2022-01-09",
		PressureUnit:    "PSI",
		TotalPages:      12,
		Leading:         PageRange{Start: 0, Stop: 2},
		Chains: []ChainSummary{
			{Number: 1, Pages: 10, ReportablePages: 9, CorruptedPages: 1, Samples: 30, StartMs: 0, EndMs: 29_000,
				Pressure:    ChannelStats{Count: 30, Min: 1, Max: 2, Mean: 1.5, StdDev: 0.1},
				Temperature: ChannelStats{}},
			{Number: 2, Headless: true},
		},
		Warnings: []string{"device raised alarms: overheat"},
	})

	require.True(t, strings.HasPrefix(notes, "# Recorder dump 17\n"))
	assert.Contains(t, notes, "Pages 0..1 precede the first session start")
	assert.Contains(t, notes, "Samples 30 | 00:00:00.000 .. 00:00:29.000")
	assert.Contains(t, notes, "Pressure 1.5000 avg / 1.0000 min / 2.0000 max PSI (sd 0.1000)\n")
	assert.Contains(t, notes, "Temperature: no data")
	assert.Contains(t, notes, "## Session 2 (no start page)\n\n")
	assert.Contains(t, notes, "No samples")
	assert.True(t, strings.HasSuffix(notes, "- device raised alarms: overheat\n"))
}
