// Package recorder reconstructs sample series from logger flash pages and
// groups pages into recording sessions.
package recorder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// SentinelBlockID marks a flash page that never received data.
const SentinelBlockID = math.MaxUint32

// Header is the per-page metadata produced by the page unpacker.
type Header struct {
	ThisBlockID     uint32    `json:"this_block_id"`
	PrevBlockID     uint32    `json:"prev_block_id"`
	Timestamp       uint64    `json:"timestamp"` // ms since session start
	BaseIntervalMs  uint32    `json:"base_interval_ms"`
	InterleaveRatio [2]uint32 `json:"interleave_ratio"` // [pressure, temperature]
	TCPU            float32   `json:"t_cpu"`
	VBat            float32   `json:"v_bat"`
	DataCRC32       uint32    `json:"data_crc32"`
}

// IsSessionStart reports whether the page opens a new recording session.
func (h Header) IsSessionStart() bool {
	return h.ThisBlockID == 0 && h.PrevBlockID == 0
}

// IsSentinel reports whether the page is an unwritten flash page.
func (h Header) IsSentinel() bool {
	return h.ThisBlockID == SentinelBlockID || h.PrevBlockID == SentinelBlockID
}

// Record is one raw oscillator reading. A frequency the unpacker could not
// measure is NaN; in JSON it travels as null.
type Record struct {
	Freq float32 `json:"freq"`
}

type jsonRecord struct {
	Freq json.RawMessage `json:"freq"`
}

// MarshalJSON writes NaN as null and infinities as "+Inf"/"-Inf".
func (r Record) MarshalJSON() ([]byte, error) {
	f := float64(r.Freq)
	var freq []byte
	switch {
	case math.IsNaN(f):
		freq = []byte("null")
	case math.IsInf(f, 0):
		freq = strconv.AppendQuote(nil, strconv.FormatFloat(f, 'f', -1, 32))
	default:
		freq = strconv.AppendFloat(nil, f, 'g', -1, 32)
	}
	return json.Marshal(jsonRecord{Freq: freq})
}

// UnmarshalJSON accepts a number, null, a missing freq or a quoted number
// such as "NaN". null and a missing freq decode to NaN.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw jsonRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := bytes.TrimSpace(raw.Freq)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		r.Freq = float32(math.NaN())
		return nil
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return fmt.Errorf("record freq %q: %w", s, err)
		}
		r.Freq = float32(f)
		return nil
	}
	var f float32
	if err := json.Unmarshal(v, &f); err != nil {
		return fmt.Errorf("record freq: %w", err)
	}
	r.Freq = f
	return nil
}

// RawPage is one unpacked flash page. Pages are read-only after loading.
type RawPage struct {
	Header     Header   `json:"header"`
	Consistent bool     `json:"consistent"`
	FP         []Record `json:"fp"`
	FT         []Record `json:"ft"`
}

// PageClass is the outcome of classifying a page before reporting.
type PageClass int

const (
	PageReportable PageClass = iota
	PageCorrupted
	PageNoData
)

func (c PageClass) String() string {
	switch c {
	case PageReportable:
		return "reportable"
	case PageCorrupted:
		return "corrupted"
	case PageNoData:
		return "no_data"
	default:
		return "unknown"
	}
}

// MarshalText lets PageClass appear as a string in JSON output.
func (c PageClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses the names produced by MarshalText.
func (c *PageClass) UnmarshalText(b []byte) error {
	switch string(b) {
	case "reportable":
		*c = PageReportable
	case "corrupted":
		*c = PageCorrupted
	case "no_data":
		*c = PageNoData
	default:
		return fmt.Errorf("unknown page class %q", b)
	}
	return nil
}

// Classify decides how a page is reported. Only inconsistent pages whose
// ids are both the sentinel value are treated as empty flash.
func Classify(p RawPage) PageClass {
	if p.Consistent {
		return PageReportable
	}
	if p.Header.ThisBlockID == SentinelBlockID && p.Header.PrevBlockID == SentinelBlockID {
		return PageNoData
	}
	return PageCorrupted
}
