package pagestream

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	recorder "github.com/lucasjlepore/recorder-decode"
)

func samplePages() []recorder.RawPage {
	return []recorder.RawPage{
		{
			Header: recorder.Header{
				Timestamp:       0,
				BaseIntervalMs:  1000,
				InterleaveRatio: [2]uint32{1, 2},
				TCPU:            24.5,
				VBat:            3.6,
				DataCRC32:       0xDEADBEEF,
			},
			Consistent: true,
			FP:         []recorder.Record{{Freq: 31250.125}, {Freq: 31251}},
			FT:         []recorder.Record{{Freq: 32768.5}},
		},
		{
			Header: recorder.Header{
				ThisBlockID: recorder.SentinelBlockID,
				PrevBlockID: recorder.SentinelBlockID,
			},
		},
	}
}

func TestPagesRoundTrip(t *testing.T) {
	pages := samplePages()
	path := filepath.Join(t.TempDir(), "pages.jsonl")
	if err := SavePages(path, pages); err != nil {
		t.Fatalf("SavePages: %v", err)
	}

	got, err := LoadPages(path)
	if err != nil {
		t.Fatalf("LoadPages: %v", err)
	}
	if diff := cmp.Diff(pages, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPagesRoundTripNaNFrequency(t *testing.T) {
	pages := samplePages()
	pages[0].FT = []recorder.Record{{Freq: float32(math.NaN())}, {Freq: float32(math.Inf(1))}}

	data, err := MarshalPages(pages)
	if err != nil {
		t.Fatalf("MarshalPages: %v", err)
	}
	if !strings.Contains(string(data), `"ft":[{"freq":null},{"freq":"+Inf"}]`) {
		t.Fatalf("non-finite frequencies not encoded as null/string:\n%s", data)
	}

	got, err := ParsePages(data)
	if err != nil {
		t.Fatalf("ParsePages: %v", err)
	}
	if diff := cmp.Diff(pages, got, cmpopts.EquateNaNs()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadPagesMissingFrequency(t *testing.T) {
	stream := `{"header":{},"consistent":true,"fp":[{"freq":7}],"ft":[{"freq":null},{"freq":"NaN"},{"index":3},{"freq":"12.5"}]}`
	pages, err := ParsePages([]byte(stream))
	if err != nil {
		t.Fatalf("ParsePages: %v", err)
	}
	ft := pages[0].FT
	if len(ft) != 4 {
		t.Fatalf("got %d ft records, want 4", len(ft))
	}
	for i := 0; i < 3; i++ {
		if !math.IsNaN(float64(ft[i].Freq)) {
			t.Errorf("ft[%d] = %v, want NaN", i, ft[i].Freq)
		}
	}
	if ft[3].Freq != 12.5 || pages[0].FP[0].Freq != 7 {
		t.Errorf("numeric frequencies decoded as ft=%v fp=%v", ft[3].Freq, pages[0].FP[0].Freq)
	}

	_, err = ParsePages([]byte(`{"header":{},"fp":[{"freq":"fast"}]}`))
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("expected line 1 error for a non-numeric freq, got %v", err)
	}
}

func TestReadPagesUnpackerFormat(t *testing.T) {
	stream := `{"header":{"this_block_id":0,"prev_block_id":0,"timestamp":0,"base_interval_ms":500,"interleave_ratio":[1,1],"t_cpu":21.0,"v_bat":3.3,"data_crc32":305419896},"consistent":true,"fp":[{"freq":1.5,"index":0}],"ft":[{"freq":2.5}]}

{"header":{"this_block_id":1,"prev_block_id":0,"timestamp":1000,"base_interval_ms":500,"interleave_ratio":[1,1],"t_cpu":21.0,"v_bat":3.3,"data_crc32":1},"consistent":false,"fp":[],"ft":[]}
`
	pages, err := ReadPages(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("ReadPages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if pages[0].Header.DataCRC32 != 0x12345678 {
		t.Errorf("crc = 0x%08X", pages[0].Header.DataCRC32)
	}
	if !pages[0].Header.IsSessionStart() {
		t.Error("first page should be a session start")
	}
	if pages[1].Consistent {
		t.Error("second page should be inconsistent")
	}

	st := Stats(pages)
	if st != (StreamStats{Pages: 2, Consistent: 1, SessionStarts: 1}) {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestReadPagesErrors(t *testing.T) {
	_, err := ReadPages(strings.NewReader("\n\n"))
	if !errors.Is(err, ErrEmptyStream) {
		t.Fatalf("expected ErrEmptyStream, got %v", err)
	}

	_, err = ParsePages([]byte("{\"header\":{}}\n{broken\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 error, got %v", err)
	}
}

func TestStorageInfoAndWarnings(t *testing.T) {
	info, err := ParseStorageInfo([]byte(`{"FlashPageSize": 4096, "FlashPages": 2048, "FlashUsedPages": 1}`))
	if err != nil {
		t.Fatalf("ParseStorageInfo: %v", err)
	}
	if info.FlashPageSize != 4096 || info.FlashUsedPages != 1 {
		t.Fatalf("unexpected storage info: %+v", info)
	}

	pages := samplePages()
	pages[1].Consistent = true
	warnings := BuildWarnings(pages, info)
	want := []string{
		"stream has 2 pages but storage reports 1 used",
		"page 1 is marked consistent but carries sentinel block ids",
		"page 1 (block 4294967295) has a zero base interval",
	}
	if diff := cmp.Diff(want, warnings); diff != "" {
		t.Fatalf("warnings mismatch (-want +got):\n%s", diff)
	}
}
