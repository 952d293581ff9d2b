package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/lucasjlepore/recorder-decode/pipeline"
)

func main() {
	if err := loadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "recorder_decode failed: %v\n", err)
		os.Exit(1)
	}

	var (
		srcDir      = flag.String("src", envOr("RECORDER_SRC", "."), "Run directory holding config.var, storage.var and pages.jsonl")
		outDir      = flag.String("dest", envOr("RECORDER_DEST", ""), "Output directory")
		freq        = flag.Bool("freq", false, "Add raw frequency columns to page reports")
		series      = flag.String("series", pipeline.SeriesCSV, "Per-chain session series: csv|parquet|none")
		fitOut      = flag.Bool("fit", false, "Write a FIT session file per chain")
		keepLeading = flag.Bool("keep-leading", false, "Decode pages before the first session start as a headless chain")
		workers     = flag.Int("workers", envInt("RECORDER_WORKERS", 0), "Page workers (0 = one per CPU)")
		overwrite   = flag.Bool("overwrite", false, "Allow writing into non-empty output directories; chain-* directories, manifest.json and notes.md from earlier runs are removed first")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --src rundir --dest outdir [--freq] [--series csv|parquet|none] [--fit] [--keep-leading]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*outDir) == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := pipeline.Run(ctx, pipeline.Options{
		Settings: pipeline.Settings{
			IncludeFreq: *freq,
			Series:      *series,
			FIT:         *fitOut,
			KeepLeading: *keepLeading,
			Workers:     *workers,
		},
		SrcDir:    *srcDir,
		OutDir:    *outDir,
		Overwrite: *overwrite,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "recorder_decode failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("recorder_decode complete\n")
	fmt.Printf("Output dir:     %s\n", result.OutputDir)
	fmt.Printf("manifest.json:  %s\n", result.ManifestPath)
	fmt.Printf("notes.md:       %s\n", result.NotesPath)
	fmt.Printf("chains:         %d\n", result.Chains)
	fmt.Printf("pages:          %s (%d reportable, %d corrupted, %d empty, %d skipped)\n",
		humanize.Comma(int64(result.Pages)), result.Reportable, result.Corrupted, result.NoData, result.LeadingSkipped)
	fmt.Printf("artifacts:      %d, %s\n", result.Artifacts, humanize.Bytes(uint64(result.BytesWritten)))
	for _, w := range result.Warnings {
		fmt.Printf("warning:        %s\n", w)
	}
}

// loadDotEnv loads path into the environment. A missing file is not an
// error; explicit flags still win over the environment.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ignoring %s=%q: %v\n", key, v, err)
		return fallback
	}
	return n
}
