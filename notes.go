package recorder

import (
	"fmt"
	"strings"
)

// RunNotes is the input of BuildRunNotes.
type RunNotes struct {
	Serial          uint32
	CalibrationDate string
	PressureUnit    string
	TotalPages      int
	Leading         PageRange
	Chains          []ChainSummary
	Warnings        []string
}

// BuildRunNotes renders a human readable overview of a decoded dump.
func BuildRunNotes(n RunNotes) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Recorder dump %d\n\n", n.Serial)
	fmt.Fprintf(&b, "Calibration date: %s\n", n.CalibrationDate)
	fmt.Fprintf(&b, "Pressure unit: %s\n", n.PressureUnit)
	fmt.Fprintf(&b, "Pages: %d | Sessions: %d\n", n.TotalPages, len(n.Chains))
	if !n.Leading.Empty() {
		fmt.Fprintf(&b, "Pages %d..%d precede the first session start and were not decoded\n", n.Leading.Start, n.Leading.Stop-1)
	}

	for _, c := range n.Chains {
		b.WriteString("\n")
		title := fmt.Sprintf("## Session %d", c.Number)
		if c.Headless {
			title += " (no start page)"
		}
		b.WriteString(title + "\n\n")
		fmt.Fprintf(&b, "Blocks %d..%d | %d pages (%d ok, %d corrupted, %d empty)\n",
			c.FirstBlockID, c.LastBlockID, c.Pages, c.ReportablePages, c.CorruptedPages, c.NoDataPages)
		if c.Samples == 0 {
			b.WriteString("No samples\n")
			continue
		}
		fmt.Fprintf(&b, "Samples %d | %s .. %s\n", c.Samples, FormatDurationMs(c.StartMs), FormatDurationMs(c.EndMs))
		writeChannelLine(&b, "Pressure", c.PressureUnit, c.Pressure)
		writeChannelLine(&b, "Temperature", "*C", c.Temperature)
	}

	if len(n.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range n.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

func writeChannelLine(b *strings.Builder, name, unit string, st ChannelStats) {
	if st.Count == 0 {
		fmt.Fprintf(b, "%s: no data\n", name)
		return
	}
	fmt.Fprintf(b, "%s %.4f avg / %.4f min / %.4f max %s (sd %.4f)", name, st.Mean, st.Min, st.Max, unit, st.StdDev)
	if st.OutOfRange > 0 {
		fmt.Fprintf(b, " | %d outside work range", st.OutOfRange)
	}
	b.WriteString("\n")
}

// FormatDurationMs renders milliseconds since session start as HH:MM:SS.mmm.
// Hours are not wrapped at 24.
func FormatDurationMs(ms uint64) string {
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}
