package pipeline

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	recorder "github.com/lucasjlepore/recorder-decode"
	"github.com/lucasjlepore/recorder-decode/calibration"
	"github.com/lucasjlepore/recorder-decode/internal/monitoring"
	"github.com/lucasjlepore/recorder-decode/pagestream"
	"golang.org/x/sync/errgroup"
)

// input is a loaded run directory.
type input struct {
	profile *calibration.Profile
	storage *pagestream.StorageInfo
	pages   []recorder.RawPage
}

// pageOutcome is what a page task leaves for the chain pass.
type pageOutcome struct {
	class    recorder.PageClass
	samples  []calibratedSample
	artifact *ArtifactRef
}

// Run decodes the run directory opts.SrcDir and writes every artifact below
// opts.OutDir.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.SrcDir) == "" {
		opts.SrcDir = "."
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}

	in, err := loadInput(opts.SrcDir)
	if err != nil {
		return nil, err
	}
	if err := ensureOutputDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}

	res, err := process(ctx, in, opts.Settings, DirSink{Root: opts.OutDir})
	if err != nil {
		return nil, err
	}
	res.OutputDir = opts.OutDir
	res.ManifestPath = filepath.Join(opts.OutDir, ManifestFileName)
	res.NotesPath = filepath.Join(opts.OutDir, NotesFileName)
	return res, nil
}

// RunBytes decodes in-memory inputs and returns every artifact keyed by path.
func RunBytes(ctx context.Context, opts BytesOptions) (*BytesResult, error) {
	if len(opts.ConfigData) == 0 {
		return nil, fmt.Errorf("%s contents are required", ConfigFileName)
	}
	profile, err := calibration.ParseProfile(opts.ConfigData)
	if err != nil {
		return nil, err
	}
	var storage *pagestream.StorageInfo
	if len(opts.StorageData) > 0 {
		if storage, err = pagestream.ParseStorageInfo(opts.StorageData); err != nil {
			return nil, err
		}
	}
	pages, err := pagestream.ParsePages(opts.PagesData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", PagesFileName, err)
	}

	sink := NewMemorySink()
	res, err := process(ctx, input{profile: profile, storage: storage, pages: pages}, opts.Settings, sink)
	if err != nil {
		return nil, err
	}
	res.ManifestPath = ManifestFileName
	res.NotesPath = NotesFileName
	return &BytesResult{Result: *res, Files: sink.Files()}, nil
}

func loadInput(dir string) (input, error) {
	for _, name := range []string{ConfigFileName, StorageFileName, PagesFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return input{}, fmt.Errorf("required file %s: %w", name, err)
		}
	}

	profile, err := calibration.LoadProfile(filepath.Join(dir, ConfigFileName))
	if err != nil {
		return input{}, err
	}
	storage, err := pagestream.LoadStorageInfo(filepath.Join(dir, StorageFileName))
	if err != nil {
		return input{}, err
	}
	pages, err := pagestream.LoadPages(filepath.Join(dir, PagesFileName))
	if err != nil {
		return input{}, err
	}
	return input{profile: profile, storage: storage, pages: pages}, nil
}

func process(ctx context.Context, in input, settings Settings, sink Sink) (*Result, error) {
	series, err := normalizeSeries(settings.Series)
	if err != nil {
		return nil, err
	}
	workers := settings.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	policy := recorder.DropLeading
	if settings.KeepLeading {
		policy = recorder.KeepLeading
	}

	pages := in.pages
	chains, leading := recorder.DetectChains(pages, policy)

	var warnings []string
	if !leading.Empty() {
		warnings = append(warnings, fmt.Sprintf("pages %d..%d precede the first session start and were skipped", leading.Start, leading.Stop-1))
	}
	if in.profile.Monitoring.IsSet() {
		warnings = append(warnings, "device raised alarms: "+strings.Join(in.profile.Monitoring.Alarms(), ", "))
	}
	warnings = append(warnings, pagestream.BuildWarnings(pages, in.storage)...)
	for _, w := range warnings {
		monitoring.Warnf("%s", w)
	}
	monitoring.Logf("%d pages, %d chains, %d workers", len(pages), len(chains), workers)

	// Every chain directory exists before the first page task runs.
	for _, c := range chains {
		if err := sink.MkdirAll(chainDir(c.Number)); err != nil {
			return nil, fmt.Errorf("create %s: %w", chainDir(c.Number), err)
		}
	}

	outcomes := make([]pageOutcome, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, c := range chains {
		for i := c.Start; i < c.Stop; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				out, err := processPage(sink, c, i-c.Start, &pages[i], in.profile, settings.IncludeFreq)
				if err != nil {
					return err
				}
				outcomes[i] = out
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		Chains:         len(chains),
		Pages:          len(pages),
		LeadingSkipped: leading.Stop - leading.Start,
		Warnings:       warnings,
	}
	manifest := Manifest{
		FormatVersion:   ManifestFormatVersion,
		Serial:          in.profile.Serial,
		PressureUnit:    in.profile.PressureUnit.String(),
		CalibrationDate: in.profile.CalibrationDate.String(),
		PEnabled:        in.profile.PEnabled,
		TEnabled:        in.profile.TEnabled,
		IncludeFreq:     settings.IncludeFreq,
		Storage:         in.storage,
		Stream:          pagestream.Stats(pages),
		Chains:          make([]ManifestChain, 0, len(chains)),
		Warnings:        warnings,
	}
	if !leading.Empty() {
		lr := leading
		manifest.Leading = &lr
	}

	summaries := make([]recorder.ChainSummary, 0, len(chains))
	for _, c := range chains {
		mc, sum, err := finishChain(sink, c, pages, outcomes, in.profile, settings, series)
		if err != nil {
			return nil, err
		}
		manifest.Chains = append(manifest.Chains, mc)
		summaries = append(summaries, sum)
		res.Reportable += sum.ReportablePages
		res.Corrupted += sum.CorruptedPages
		res.NoData += sum.NoDataPages
	}

	notes := recorder.BuildRunNotes(recorder.RunNotes{
		Serial:          in.profile.Serial,
		CalibrationDate: in.profile.CalibrationDate.String(),
		PressureUnit:    in.profile.PressureUnit.String(),
		TotalPages:      len(pages),
		Leading:         leading,
		Chains:          summaries,
		Warnings:        warnings,
	})
	notesRef, err := writeArtifact(sink, NotesFileName, []byte(notes))
	if err != nil {
		return nil, err
	}
	manifest.Artifacts = append(manifest.Artifacts, notesRef)

	for _, mc := range manifest.Chains {
		for _, p := range mc.Pages {
			if p.Artifact != nil {
				res.Artifacts++
				res.BytesWritten += int64(p.Artifact.Size)
			}
		}
		for _, a := range mc.Artifacts {
			res.Artifacts++
			res.BytesWritten += int64(a.Size)
		}
	}
	res.Artifacts++
	res.BytesWritten += int64(notesRef.Size)

	data, err := marshalJSON(manifest)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ManifestFileName, err)
	}
	if err := sink.WriteFile(ManifestFileName, data); err != nil {
		return nil, fmt.Errorf("write %s: %w", ManifestFileName, err)
	}
	res.Artifacts++
	res.BytesWritten += int64(len(data))

	monitoring.Logf("%d reportable, %d corrupted, %d empty pages", res.Reportable, res.Corrupted, res.NoData)
	return res, nil
}

// processPage classifies one page and writes its report. It runs on the
// worker pool and touches only its own artifact.
func processPage(sink Sink, c recorder.Chain, pos int, p *recorder.RawPage, profile *calibration.Profile, includeFreq bool) (pageOutcome, error) {
	class := recorder.Classify(*p)
	out := pageOutcome{class: class}
	h := p.Header

	switch class {
	case recorder.PageNoData:
		monitoring.Logf("chain %d page %d: no data", c.Number, pos)
		return out, nil

	case recorder.PageCorrupted:
		ref, err := writeArtifact(sink, pageArtifactName(c.Number, pos, h, class), []byte(corruptedPayload))
		if err != nil {
			return out, err
		}
		out.artifact = &ref
		monitoring.Logf("chain %d page %d (block %d): data corrupted", c.Number, pos, h.ThisBlockID)
		return out, nil
	}

	out.samples = calibratePage(p, profile)
	report, err := buildPageReport(h, out.samples, profile.PressureUnit, includeFreq)
	if err != nil {
		return out, fmt.Errorf("build report for block %d: %w", h.ThisBlockID, err)
	}
	ref, err := writeArtifact(sink, pageArtifactName(c.Number, pos, h, class), report)
	if err != nil {
		return out, err
	}
	out.artifact = &ref
	monitoring.Logf("chain %d page %d (block %d): %d samples", c.Number, pos, h.ThisBlockID, len(out.samples))
	return out, nil
}

// finishChain writes the chain level artifacts once all page tasks are done.
func finishChain(sink Sink, c recorder.Chain, pages []recorder.RawPage, outcomes []pageOutcome, profile *calibration.Profile, settings Settings, series string) (ManifestChain, recorder.ChainSummary, error) {
	dir := chainDir(c.Number)
	mc := ManifestChain{
		Number:   c.Number,
		Dir:      dir,
		Headless: c.Headless,
		Start:    c.Start,
		Stop:     c.Stop,
		Pages:    make([]ManifestPage, 0, c.Len()),
	}

	var samples []calibratedSample
	var cs recorder.ChainSeries
	for i := c.Start; i < c.Stop; i++ {
		out := outcomes[i]
		h := pages[i].Header
		mc.Pages = append(mc.Pages, ManifestPage{
			Index:       i,
			BlockID:     h.ThisBlockID,
			PrevBlockID: h.PrevBlockID,
			DataCRC32:   fmt.Sprintf("0x%08X", h.DataCRC32),
			Class:       out.class,
			Samples:     len(out.samples),
			Artifact:    out.artifact,
		})
		for _, s := range out.samples {
			cs.Append(s.TimeMs, s.Pressure, s.Temperature)
		}
		samples = append(samples, out.samples...)
	}

	if series != SeriesNone {
		ext, data, err := marshalSession(series, samples)
		if err != nil {
			return mc, recorder.ChainSummary{}, fmt.Errorf("encode %s session series: %w", dir, err)
		}
		ref, err := writeArtifact(sink, path.Join(dir, SessionFileBase+"."+ext), data)
		if err != nil {
			return mc, recorder.ChainSummary{}, err
		}
		mc.Artifacts = append(mc.Artifacts, ref)
	}

	if settings.FIT {
		data, err := marshalSessionFIT(profile.Serial, settings.FITStart, samples)
		if err != nil {
			return mc, recorder.ChainSummary{}, fmt.Errorf("encode %s fit session: %w", dir, err)
		}
		ref, err := writeArtifact(sink, path.Join(dir, SessionFileBase+".fit"), data)
		if err != nil {
			return mc, recorder.ChainSummary{}, err
		}
		mc.Artifacts = append(mc.Artifacts, ref)
	}

	sum := recorder.SummarizeChain(c, pages, cs, profile)
	data, err := marshalJSON(sum)
	if err != nil {
		return mc, sum, fmt.Errorf("encode %s summary: %w", dir, err)
	}
	ref, err := writeArtifact(sink, path.Join(dir, SummaryFileName), data)
	if err != nil {
		return mc, sum, err
	}
	mc.Artifacts = append(mc.Artifacts, ref)
	return mc, sum, nil
}
