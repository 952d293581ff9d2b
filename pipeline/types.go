// Package pipeline turns a recorder run directory into page reports and
// per-session artifacts.
package pipeline

import (
	"errors"
	"time"

	recorder "github.com/lucasjlepore/recorder-decode"
	"github.com/lucasjlepore/recorder-decode/pagestream"
)

// Input file names inside a run directory.
const (
	ConfigFileName  = "config.var"
	StorageFileName = "storage.var"
	PagesFileName   = "pages.jsonl"
)

// Output file names.
const (
	ManifestFileName = "manifest.json"
	NotesFileName    = "notes.md"
	SummaryFileName  = "summary.json"
	SessionFileBase  = "session"

	ManifestFormatVersion = "recorder_decode_v1"

	corruptedPayload = "data corrupted"
)

// Session series formats.
const (
	SeriesCSV     = "csv"
	SeriesParquet = "parquet"
	SeriesNone    = "none"
)

// ErrOutputNotEmpty is returned when the output directory already holds
// files and overwriting was not requested.
var ErrOutputNotEmpty = errors.New("output directory is not empty")

// Settings are the decoding switches shared by Run and RunBytes.
type Settings struct {
	IncludeFreq bool   // add raw frequency columns to page reports
	Series      string // csv|parquet|none
	FIT         bool   // write a FIT session file per chain
	FITStart    time.Time
	KeepLeading bool // decode pages before the first session start as a headless chain
	Workers     int  // page workers; <=0 means one per CPU
}

// Options configures a directory-to-directory run.
type Options struct {
	Settings
	SrcDir    string
	OutDir    string
	Overwrite bool
}

// BytesOptions configures an in-memory run.
type BytesOptions struct {
	Settings
	ConfigData  []byte
	StorageData []byte // optional
	PagesData   []byte
}

// Result describes a finished run.
type Result struct {
	OutputDir      string   `json:"output_dir,omitempty"`
	ManifestPath   string   `json:"manifest_path"`
	NotesPath      string   `json:"notes_path"`
	Chains         int      `json:"chains"`
	Pages          int      `json:"pages"`
	Reportable     int      `json:"reportable"`
	Corrupted      int      `json:"corrupted"`
	NoData         int      `json:"no_data"`
	LeadingSkipped int      `json:"leading_skipped"`
	Artifacts      int      `json:"artifacts"`
	BytesWritten   int64    `json:"bytes_written"`
	Warnings       []string `json:"warnings,omitempty"`
}

// BytesResult is the outcome of RunBytes: every artifact keyed by its
// slash-separated path.
type BytesResult struct {
	Result
	Files map[string][]byte
}

// Manifest indexes every artifact of a run.
type Manifest struct {
	FormatVersion   string                  `json:"format_version"`
	Serial          uint32                  `json:"serial"`
	PressureUnit    string                  `json:"pressure_unit"`
	CalibrationDate string                  `json:"calibration_date"`
	PEnabled        bool                    `json:"p_enabled"`
	TEnabled        bool                    `json:"t_enabled"`
	IncludeFreq     bool                    `json:"include_freq"`
	Storage         *pagestream.StorageInfo `json:"storage,omitempty"`
	Stream          pagestream.StreamStats  `json:"stream"`
	Leading         *recorder.PageRange     `json:"leading_skipped,omitempty"`
	Chains          []ManifestChain         `json:"chains"`
	Artifacts       []ArtifactRef           `json:"artifacts,omitempty"`
	Warnings        []string                `json:"warnings,omitempty"`
}

// ManifestChain lists the artifacts of one chain.
type ManifestChain struct {
	Number    int            `json:"number"`
	Dir       string         `json:"dir"`
	Headless  bool           `json:"headless,omitempty"`
	Start     int            `json:"start"`
	Stop      int            `json:"stop"`
	Pages     []ManifestPage `json:"pages"`
	Artifacts []ArtifactRef  `json:"artifacts,omitempty"`
}

// ManifestPage describes the outcome for one page.
type ManifestPage struct {
	Index       int                `json:"index"`
	BlockID     uint32             `json:"block_id"`
	PrevBlockID uint32             `json:"prev_block_id"`
	DataCRC32   string             `json:"data_crc32"`
	Class       recorder.PageClass `json:"class"`
	Samples     int                `json:"samples,omitempty"`
	Artifact    *ArtifactRef       `json:"artifact,omitempty"`
}

// ArtifactRef identifies a written file and its CRC-16.
type ArtifactRef struct {
	Path  string `json:"path"`
	Size  int    `json:"size"`
	CRC16 string `json:"crc16"`
}
