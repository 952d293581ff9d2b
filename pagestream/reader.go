package pagestream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	recorder "github.com/lucasjlepore/recorder-decode"
)

// ReadPages decodes a JSONL page stream. Blank lines are skipped; any
// malformed line aborts with its line number.
func ReadPages(r io.Reader) ([]recorder.RawPage, error) {
	sc := bufio.NewScanner(r)
	buf := make([]byte, 0, 1024*1024)
	sc.Buffer(buf, 16*1024*1024)

	pages := make([]recorder.RawPage, 0, 1024)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var p recorder.RawPage
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("page stream line %d: %w", line, err)
		}
		pages = append(pages, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read page stream: %w", err)
	}
	if len(pages) == 0 {
		return nil, ErrEmptyStream
	}
	return pages, nil
}

// ParsePages decodes an in-memory page stream.
func ParsePages(data []byte) ([]recorder.RawPage, error) {
	return ReadPages(bytes.NewReader(data))
}

// LoadPages reads a page stream file.
func LoadPages(path string) ([]recorder.RawPage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages, err := ReadPages(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pages, nil
}

// ParseStorageInfo decodes storage.var contents.
func ParseStorageInfo(data []byte) (*StorageInfo, error) {
	var info StorageInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse storage configuration: %w", err)
	}
	return &info, nil
}

// LoadStorageInfo reads storage.var.
func LoadStorageInfo(path string) (*StorageInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read storage configuration: %w", err)
	}
	return ParseStorageInfo(data)
}

// Stats counts page kinds in the stream.
func Stats(pages []recorder.RawPage) StreamStats {
	st := StreamStats{Pages: len(pages)}
	for _, p := range pages {
		if p.Consistent {
			st.Consistent++
		}
		if p.Header.IsSessionStart() {
			st.SessionStarts++
		}
		if p.Header.IsSentinel() {
			st.Sentinel++
		}
	}
	return st
}

// BuildWarnings returns deterministic stream-quality notes.
func BuildWarnings(pages []recorder.RawPage, storage *StorageInfo) []string {
	warnings := make([]string, 0, 4)
	if storage != nil && storage.FlashUsedPages > 0 && uint32(len(pages)) > storage.FlashUsedPages {
		warnings = append(warnings, fmt.Sprintf("stream has %d pages but storage reports %d used", len(pages), storage.FlashUsedPages))
	}
	for i, p := range pages {
		if p.Consistent && p.Header.IsSentinel() {
			warnings = append(warnings, fmt.Sprintf("page %d is marked consistent but carries sentinel block ids", i))
		}
		if p.Consistent && p.Header.BaseIntervalMs == 0 {
			warnings = append(warnings, fmt.Sprintf("page %d (block %d) has a zero base interval", i, p.Header.ThisBlockID))
		}
	}
	return warnings
}
