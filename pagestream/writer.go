package pagestream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"

	recorder "github.com/lucasjlepore/recorder-decode"
)

// WritePages encodes pages as a JSONL stream.
func WritePages(w io.Writer, pages []recorder.RawPage) error {
	buf := bufio.NewWriterSize(w, 1<<20)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	for _, p := range pages {
		if err := enc.Encode(p); err != nil {
			return err
		}
	}
	return buf.Flush()
}

// MarshalPages renders pages as JSONL bytes.
func MarshalPages(pages []recorder.RawPage) ([]byte, error) {
	var b bytes.Buffer
	if err := WritePages(&b, pages); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// SavePages writes a page stream file.
func SavePages(path string, pages []recorder.RawPage) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePages(f, pages); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
