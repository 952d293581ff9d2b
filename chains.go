package recorder

// ChainPolicy controls what happens to pages recorded before the first
// session-start marker of the dump.
type ChainPolicy int

const (
	// DropLeading leaves pages before the first marker out of every chain.
	DropLeading ChainPolicy = iota
	// KeepLeading collects them into a headless first chain.
	KeepLeading
)

// Chain is one continuous acquisition session: the page range [Start, Stop).
type Chain struct {
	Number   int  `json:"number"`
	Start    int  `json:"start"`
	Stop     int  `json:"stop"`
	Headless bool `json:"headless,omitempty"`
}

// Len returns the number of pages in the chain.
func (c Chain) Len() int { return c.Stop - c.Start }

// PageRange is a half-open range of page-list indices.
type PageRange struct {
	Start int `json:"start"`
	Stop  int `json:"stop"`
}

// Empty reports whether the range holds no pages.
func (r PageRange) Empty() bool { return r.Stop <= r.Start }

// SessionStarts returns the indices of all session-start pages in ascending order.
func SessionStarts(pages []RawPage) []int {
	starts := make([]int, 0, 8)
	for i := range pages {
		if pages[i].Header.IsSessionStart() {
			starts = append(starts, i)
		}
	}
	return starts
}

// DetectChains partitions pages into chains at every session-start marker.
// Chains are numbered from 1 in page order. The second result is the range
// of pages preceding the first marker that no chain covers; it is empty when
// the list starts with a marker or when the policy is KeepLeading.
func DetectChains(pages []RawPage, policy ChainPolicy) ([]Chain, PageRange) {
	return PartitionChains(SessionStarts(pages), len(pages), policy)
}

// PartitionChains builds chains from precomputed marker indices over a list
// of n pages. starts must be ascending.
func PartitionChains(starts []int, n int, policy ChainPolicy) ([]Chain, PageRange) {
	if n == 0 {
		return nil, PageRange{}
	}

	firstMarker := n
	if len(starts) > 0 {
		firstMarker = starts[0]
	}

	chains := make([]Chain, 0, len(starts)+1)
	var leading PageRange
	if firstMarker > 0 {
		if policy == KeepLeading {
			chains = append(chains, Chain{Start: 0, Stop: firstMarker, Headless: true})
		} else {
			leading = PageRange{Start: 0, Stop: firstMarker}
		}
	}

	for k, start := range starts {
		stop := n
		if k+1 < len(starts) {
			stop = starts[k+1]
		}
		chains = append(chains, Chain{Start: start, Stop: stop})
	}

	for i := range chains {
		chains[i].Number = i + 1
	}
	return chains, leading
}
