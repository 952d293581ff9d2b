package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

var sessionColumns = []string{
	"page_id", "tick", "time_ms", "pressure", "temperature", "pressure_freq", "temperature_freq",
}

func normalizeSeries(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = SeriesCSV
	}
	switch format {
	case SeriesCSV, SeriesParquet, SeriesNone:
		return format, nil
	}
	return "", fmt.Errorf("unsupported series format %q (expected csv|parquet|none)", format)
}

// marshalSession encodes the session series of a chain in the requested
// format. It returns the file extension together with the payload.
func marshalSession(format string, samples []calibratedSample) (string, []byte, error) {
	switch format {
	case SeriesCSV:
		data, err := marshalSessionCSV(samples)
		return "csv", data, err
	case SeriesParquet:
		data, err := marshalSessionParquet(samples)
		return "parquet", data, err
	}
	return "", nil, fmt.Errorf("unsupported series format %q", format)
}

func marshalSessionCSV(samples []calibratedSample) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(sessionColumns); err != nil {
		return nil, err
	}
	for _, s := range samples {
		row := []string{
			strconv.FormatUint(uint64(s.PageID), 10),
			strconv.FormatUint(uint64(s.Tick), 10),
			strconv.FormatUint(s.TimeMs, 10),
			formatValue(s.Pressure),
			formatValue(s.Temperature),
			formatValue(s.PFreq),
			formatValue(s.TFreq),
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
