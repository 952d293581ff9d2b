package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path"
	"strconv"

	recorder "github.com/lucasjlepore/recorder-decode"
	"github.com/lucasjlepore/recorder-decode/calibration"
)

// calibratedSample is one reconstructed sample after calibration.
type calibratedSample struct {
	PageID      uint32
	Tick        uint32
	TimeMs      uint64
	Pressure    float32
	Temperature float32
	PFreq       float32
	TFreq       float32
}

// chainDir names the output directory of chain number n.
func chainDir(n int) string {
	return fmt.Sprintf("chain-%04d", n)
}

// pageArtifactName names the report of the page at position pos within its
// chain. Lexical order of names follows page order.
func pageArtifactName(chain, pos int, h recorder.Header, class recorder.PageClass) string {
	var name string
	switch {
	case class == recorder.PageCorrupted:
		name = fmt.Sprintf("%06d_%d-0x%08X-corrupted.csv", pos, h.ThisBlockID, h.DataCRC32)
	case h.IsSessionStart():
		name = fmt.Sprintf("%06d-start_%d-0x%08X.csv", pos, h.ThisBlockID, h.DataCRC32)
	default:
		name = fmt.Sprintf("%06d_%d-0x%08X.csv", pos, h.ThisBlockID, h.DataCRC32)
	}
	return path.Join(chainDir(chain), name)
}

// calibratePage reconstructs and calibrates every sample of a page.
func calibratePage(p *recorder.RawPage, profile *calibration.Profile) []calibratedSample {
	r := recorder.NewReconstructor(p)
	out := make([]calibratedSample, 0, len(p.FP)+len(p.FT))
	for s, ok := r.Next(); ok; s, ok = r.Next() {
		out = append(out, calibratedSample{
			PageID:      p.Header.ThisBlockID,
			Tick:        s.Tick,
			TimeMs:      s.TimeMs,
			Pressure:    profile.PressureAt(s.FP, s.FT),
			Temperature: profile.TemperatureAt(s.FT),
			PFreq:       s.FP,
			TFreq:       s.FT,
		})
	}
	return out
}

// buildPageReport renders the semicolon separated report of a reportable page.
func buildPageReport(h recorder.Header, samples []calibratedSample, unit calibration.PressureUnit, includeFreq bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	first := []string{"page " + strconv.FormatUint(uint64(h.ThisBlockID), 10), "previous " + strconv.FormatUint(uint64(h.PrevBlockID), 10)}
	if h.IsSessionStart() {
		first = []string{"start page", strconv.FormatUint(uint64(h.ThisBlockID), 10)}
	}
	preamble := [][]string{
		first,
		{"page start", recorder.FormatDurationMs(h.Timestamp)},
		{"base interval", strconv.FormatUint(uint64(h.BaseIntervalMs), 10), "ms"},
		{"cpu temperature", formatMeta(h.TCPU), "*C"},
		{"battery", formatMeta(h.VBat), "V"},
	}
	if err := w.WriteAll(preamble); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')

	header := []string{"time", "pressure, " + unit.String(), "temperature, *C"}
	if includeFreq {
		header = append(header, "pressure frequency, Hz", "temperature frequency, Hz")
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, s := range samples {
		row := []string{
			recorder.FormatDurationMs(s.TimeMs),
			formatValue(s.Pressure),
			formatValue(s.Temperature),
		}
		if includeFreq {
			row = append(row, formatValue(s.PFreq), formatValue(s.TFreq))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatValue prints a sample value with six decimals; NaN prints as "NaN".
func formatValue(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', 6, 32)
}

func formatMeta(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}
