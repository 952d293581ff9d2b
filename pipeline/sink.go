package pipeline

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Sink receives run artifacts. Paths are slash-separated and relative to
// the sink root. A directory must be created before files are written into it.
type Sink interface {
	MkdirAll(dir string) error
	WriteFile(name string, data []byte) error
}

// DirSink writes artifacts below Root on the local filesystem.
type DirSink struct {
	Root string
}

// MkdirAll creates dir below the root.
func (s DirSink) MkdirAll(dir string) error {
	return os.MkdirAll(filepath.Join(s.Root, filepath.FromSlash(dir)), 0o755)
}

// WriteFile creates or truncates name below the root.
func (s DirSink) WriteFile(name string, data []byte) error {
	return os.WriteFile(filepath.Join(s.Root, filepath.FromSlash(name)), data, 0o644)
}

// MemorySink keeps artifacts in memory. It is safe for concurrent use.
type MemorySink struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		files: make(map[string][]byte),
		dirs:  map[string]bool{".": true},
	}
}

// MkdirAll records dir and its parents.
func (m *MemorySink) MkdirAll(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for d := path.Clean(dir); d != "." && d != "/"; d = path.Dir(d) {
		m.dirs[d] = true
	}
	return nil
}

// WriteFile stores a copy of data under name.
func (m *MemorySink) WriteFile(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = path.Clean(name)
	if dir := path.Dir(name); !m.dirs[dir] {
		return fmt.Errorf("write %s: directory %s does not exist", name, dir)
	}
	m.files[name] = append([]byte(nil), data...)
	return nil
}

// Files returns a copy of the stored artifacts.
func (m *MemorySink) Files() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(m.files))
	for k, v := range m.files {
		out[k] = v
	}
	return out
}

// Names returns the stored artifact names in lexical order.
func (m *MemorySink) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.files))
	for k := range m.files {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func ensureOutputDir(dir string, overwrite bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("%w: %s (set overwrite to allow)", ErrOutputNotEmpty, dir)
	}

	// Drop artifacts of an earlier run so the directory matches the new
	// manifest. Unrelated files are left alone.
	for _, e := range entries {
		if !isRunArtifact(e) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("remove stale %s: %w", e.Name(), err)
		}
	}
	return nil
}

func isRunArtifact(e os.DirEntry) bool {
	name := e.Name()
	if e.IsDir() {
		return strings.HasPrefix(name, "chain-")
	}
	return name == ManifestFileName || name == NotesFileName
}
