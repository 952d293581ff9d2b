package pipeline

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"

	"github.com/tormoder/fit"
)

var defaultFITStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// marshalSessionFIT encodes a chain as a FIT activity. Sample times are
// offsets from start; FIT resolves timestamps to whole seconds, so only the
// first sample of each second becomes a record.
func marshalSessionFIT(serial uint32, start time.Time, samples []calibratedSample) ([]byte, error) {
	if start.IsZero() {
		start = defaultFITStart
	}
	start = start.UTC()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	if err != nil {
		return nil, err
	}
	file.FileId.SerialNumber = serial
	file.FileId.TimeCreated = start

	activity, err := file.Activity()
	if err != nil {
		return nil, err
	}

	var first, last time.Time
	if len(samples) > 0 {
		first = sampleTime(start, samples[0].TimeMs)
		last = sampleTime(start, samples[len(samples)-1].TimeMs)
	} else {
		first, last = start, start
	}

	begin := fit.NewEventMsg()
	begin.Timestamp = first
	begin.Event = fit.EventTimer
	begin.EventType = fit.EventTypeStart
	activity.Events = append(activity.Events, begin)

	lastSecond := int64(-1)
	for _, s := range samples {
		sec := int64(s.TimeMs / 1000)
		if sec == lastSecond {
			continue
		}
		lastSecond = sec

		rec := fit.NewRecordMsg()
		rec.Timestamp = sampleTime(start, s.TimeMs)
		if t, ok := fitTemperature(s.Temperature); ok {
			rec.Temperature = t
		}
		activity.Records = append(activity.Records, rec)
	}

	stop := fit.NewEventMsg()
	stop.Timestamp = last
	stop.Event = fit.EventTimer
	stop.EventType = fit.EventTypeStop
	activity.Events = append(activity.Events, stop)

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sampleTime(start time.Time, ms uint64) time.Time {
	return start.Add(time.Duration(ms/1000) * time.Second)
}

// fitTemperature rounds to whole degrees; values outside int8 are dropped
// because 127 is the FIT invalid marker.
func fitTemperature(v float32) (int8, bool) {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return 0, false
	}
	r := math.Round(float64(v))
	if r < math.MinInt8 || r >= math.MaxInt8 {
		return 0, false
	}
	return int8(r), true
}
