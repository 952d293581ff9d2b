//go:build js && wasm

package main

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"sort"
	"syscall/js"
	"time"

	"github.com/lucasjlepore/recorder-decode/internal/monitoring"
	"github.com/lucasjlepore/recorder-decode/pipeline"
)

func main() {
	monitoring.SetLogger(nil)
	js.Global().Set("decodePages", js.FuncOf(decodePages))
	select {}
}

// decodePages(configBytes, storageBytes, pagesBytes, options) returns
// {ok, zip, files, warnings} or {ok: false, error}.
func decodePages(_ js.Value, args []js.Value) any {
	if len(args) < 3 {
		return failure("expected arguments: config(Uint8Array), storage(Uint8Array|null), pages(Uint8Array), options(object)")
	}
	config := copyBytes(args[0])
	if len(config) == 0 {
		return failure("config.var bytes are required")
	}
	pages := copyBytes(args[2])
	if len(pages) == 0 {
		return failure("pages.jsonl bytes are required")
	}

	var optsArg js.Value
	if len(args) > 3 {
		optsArg = args[3]
	}
	opts := pipeline.BytesOptions{
		Settings: pipeline.Settings{
			IncludeFreq: getBool(optsArg, "freq"),
			Series:      getString(optsArg, "series", pipeline.SeriesCSV),
			FIT:         getBool(optsArg, "fit"),
			KeepLeading: getBool(optsArg, "keep_leading"),
			Workers:     1,
		},
		ConfigData:  config,
		StorageData: copyBytes(args[1]),
		PagesData:   pages,
	}
	result, err := pipeline.RunBytes(context.Background(), opts)
	if err != nil {
		return failure(err.Error())
	}

	zipBytes, err := zipArtifacts(result.Files)
	if err != nil {
		return failure(fmt.Sprintf("create zip: %v", err))
	}
	payload := js.Global().Get("Uint8Array").New(len(zipBytes))
	js.CopyBytesToJS(payload, zipBytes)

	fileNames := make([]string, 0, len(result.Files))
	for name := range result.Files {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)

	return map[string]any{
		"ok":       true,
		"zip":      payload,
		"chains":   result.Chains,
		"warnings": stringsToAny(result.Warnings),
		"files":    stringsToAny(fileNames),
	}
}

func failure(msg string) map[string]any {
	return map[string]any{"ok": false, "error": msg}
}

func copyBytes(v js.Value) []byte {
	if v.IsUndefined() || v.IsNull() {
		return nil
	}
	n := v.Get("length").Int()
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	js.CopyBytesToGo(out, v)
	return out
}

func zipArtifacts(files map[string][]byte) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fixedTime := time.Unix(0, 0).UTC()

	for _, name := range names {
		h := &zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		}
		h.SetModTime(fixedTime)
		w, err := zw.CreateHeader(h)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(files[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func getString(v js.Value, key, fallback string) string {
	if v.IsUndefined() || v.IsNull() || v.Type() != js.TypeObject {
		return fallback
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() {
		return fallback
	}
	s := out.String()
	if s == "" {
		return fallback
	}
	return s
}

func getBool(v js.Value, key string) bool {
	if v.IsUndefined() || v.IsNull() || v.Type() != js.TypeObject {
		return false
	}
	return v.Get(key).Truthy()
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
