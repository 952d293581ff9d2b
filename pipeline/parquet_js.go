//go:build js

package pipeline

import "errors"

var errParquetUnavailable = errors.New("parquet series are not available in js builds")

func marshalSessionParquet([]calibratedSample) ([]byte, error) {
	return nil, errParquetUnavailable
}
