//go:build !js

package pipeline

import (
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type sessionParquetRow struct {
	PageID      int64   `parquet:"name=page_id, type=INT64"`
	Tick        int64   `parquet:"name=tick, type=INT64"`
	TimeMs      int64   `parquet:"name=time_ms, type=INT64"`
	Pressure    float32 `parquet:"name=pressure, type=FLOAT"`
	Temperature float32 `parquet:"name=temperature, type=FLOAT"`
	PFreq       float32 `parquet:"name=pressure_freq, type=FLOAT"`
	TFreq       float32 `parquet:"name=temperature_freq, type=FLOAT"`
}

func marshalSessionParquet(samples []calibratedSample) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(sessionParquetRow), 1)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, s := range samples {
		row := sessionParquetRow{
			PageID:      int64(s.PageID),
			Tick:        int64(s.Tick),
			TimeMs:      int64(s.TimeMs),
			Pressure:    s.Pressure,
			Temperature: s.Temperature,
			PFreq:       s.PFreq,
			TFreq:       s.TFreq,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
