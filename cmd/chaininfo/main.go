package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	recorder "github.com/lucasjlepore/recorder-decode"
	"github.com/lucasjlepore/recorder-decode/pagestream"
)

type chainInfo struct {
	recorder.Chain
	FirstBlockID uint32         `json:"first_block_id"`
	LastBlockID  uint32         `json:"last_block_id"`
	Classes      map[string]int `json:"classes"`
}

type report struct {
	Stream  pagestream.StreamStats `json:"stream"`
	Leading recorder.PageRange     `json:"leading_skipped"`
	Chains  []chainInfo            `json:"chains"`
}

func main() {
	var (
		jsonOut     = flag.Bool("json", false, "Emit the chain partition as JSON")
		keepLeading = flag.Bool("keep-leading", false, "Treat pages before the first session start as a headless chain")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <pages.jsonl>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	pages, err := pagestream.LoadPages(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "chaininfo failed: %v\n", err)
		os.Exit(1)
	}

	policy := recorder.DropLeading
	if *keepLeading {
		policy = recorder.KeepLeading
	}
	chains, leading := recorder.DetectChains(pages, policy)

	r := report{Stream: pagestream.Stats(pages), Leading: leading}
	for _, c := range chains {
		info := chainInfo{
			Chain:        c,
			FirstBlockID: pages[c.Start].Header.ThisBlockID,
			LastBlockID:  pages[c.Stop-1].Header.ThisBlockID,
			Classes:      make(map[string]int),
		}
		for _, p := range pages[c.Start:c.Stop] {
			info.Classes[recorder.Classify(p).String()]++
		}
		r.Chains = append(r.Chains, info)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("%s pages, %d consistent, %d session starts\n",
		humanize.Comma(int64(r.Stream.Pages)), r.Stream.Consistent, r.Stream.SessionStarts)
	if !leading.Empty() {
		fmt.Printf("pages %d..%d precede the first session start\n", leading.Start, leading.Stop-1)
	}
	for _, c := range r.Chains {
		label := ""
		if c.Headless {
			label = " (headless)"
		}
		fmt.Printf("- chain %04d%s | pages %d..%d | blocks %d..%d | %d ok, %d corrupted, %d empty\n",
			c.Number, label, c.Start, c.Stop-1, c.FirstBlockID, c.LastBlockID,
			c.Classes["reportable"], c.Classes["corrupted"], c.Classes["no_data"])
	}
}
