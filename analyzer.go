package recorder

import (
	"math"

	"github.com/lucasjlepore/recorder-decode/calibration"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ChannelStats aggregates the calibrated values of one channel. NaN values
// (disabled channel, missing records) are skipped; all fields stay zero when
// no finite value was seen.
type ChannelStats struct {
	Count      int     `json:"count"`
	Skipped    int     `json:"skipped_nan"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"stddev"`
	OutOfRange int     `json:"out_of_work_range"`
}

// ChainSummary describes one acquisition session after calibration.
type ChainSummary struct {
	Number          int          `json:"number"`
	Headless        bool         `json:"headless,omitempty"`
	Pages           int          `json:"pages"`
	ReportablePages int          `json:"reportable_pages"`
	CorruptedPages  int          `json:"corrupted_pages"`
	NoDataPages     int          `json:"no_data_pages"`
	FirstBlockID    uint32       `json:"first_block_id"`
	LastBlockID     uint32       `json:"last_block_id"`
	Samples         int          `json:"samples"`
	StartMs         uint64       `json:"start_ms"`
	EndMs           uint64       `json:"end_ms"`
	PressureUnit    string       `json:"pressure_unit"`
	Pressure        ChannelStats `json:"pressure"`
	Temperature     ChannelStats `json:"temperature"`
}

// ChainSeries holds the calibrated values of a chain in sample order.
type ChainSeries struct {
	TimesMs     []uint64
	Pressure    []float64
	Temperature []float64
}

// Append adds one calibrated sample.
func (s *ChainSeries) Append(timeMs uint64, p, t float32) {
	s.TimesMs = append(s.TimesMs, timeMs)
	s.Pressure = append(s.Pressure, float64(p))
	s.Temperature = append(s.Temperature, float64(t))
}

// SummarizeChain computes the session summary of chain c over pages.
func SummarizeChain(c Chain, pages []RawPage, series ChainSeries, profile *calibration.Profile) ChainSummary {
	sum := ChainSummary{
		Number:       c.Number,
		Headless:     c.Headless,
		Pages:        c.Len(),
		Samples:      len(series.TimesMs),
		PressureUnit: profile.PressureUnit.String(),
	}
	if c.Len() > 0 {
		sum.FirstBlockID = pages[c.Start].Header.ThisBlockID
		sum.LastBlockID = pages[c.Stop-1].Header.ThisBlockID
	}
	for _, p := range pages[c.Start:c.Stop] {
		switch Classify(p) {
		case PageReportable:
			sum.ReportablePages++
		case PageCorrupted:
			sum.CorruptedPages++
		case PageNoData:
			sum.NoDataPages++
		}
	}
	if n := len(series.TimesMs); n > 0 {
		sum.StartMs = series.TimesMs[0]
		sum.EndMs = series.TimesMs[n-1]
	}

	sum.Pressure = channelStats(series.Pressure, profile.PWorkRange)
	sum.Temperature = channelStats(series.Temperature, profile.TWorkRange)
	return sum
}

func channelStats(values []float64, wr calibration.WorkRange) ChannelStats {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		finite = append(finite, v)
	}

	st := ChannelStats{
		Count:   len(finite),
		Skipped: len(values) - len(finite),
	}
	if len(finite) == 0 {
		return st
	}

	st.Min = floats.Min(finite)
	st.Max = floats.Max(finite)
	if len(finite) > 1 {
		st.Mean, st.StdDev = stat.MeanStdDev(finite, nil)
	} else {
		st.Mean = finite[0]
	}
	for _, v := range finite {
		if !wr.Contains(float32(v)) {
			st.OutOfRange++
		}
	}
	return st
}
