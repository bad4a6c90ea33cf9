package frontier

import (
	"fmt"

	"github.com/spider-crawler/spider/internal/pagedb"
	"github.com/spider-crawler/spider/internal/urlutil"
)

// Discoverer drains a Frontier into PageDB, narrowed from the
// teacher's original crawl loop ("pop a URL, fetch it") down to
// "pop a URL, register it" — the scheduler's Invariant 1 requires a
// hash be known to PageDB before it can appear in the schedule, and
// this is the seam that satisfies it for newly found URLs that have
// never been crawled.
type Discoverer struct {
	frontier   Frontier
	pages      pagedb.PageDB
	normalizer *urlutil.Normalizer
}

// NewDiscoverer builds a Discoverer over an existing frontier and PageDB.
func NewDiscoverer(f Frontier, pages pagedb.PageDB, normalizer *urlutil.Normalizer) *Discoverer {
	return &Discoverer{frontier: f, pages: pages, normalizer: normalizer}
}

// Seed pushes a seed URL into the frontier and immediately registers
// it with PageDB as a seed, so load_simple's "not a seed" filter
// excludes it from being scheduled for a regular recrawl.
func (d *Discoverer) Seed(rawURL string) error {
	return d.add(rawURL, "", 0, true)
}

// Discover pushes a URL found while crawling discoveredFrom into the
// frontier, and registers it with PageDB with no crawl history.
// load_simple skips pages that have never been crawled, so the page is
// not scheduled until PageDB has recorded at least one crawl of it.
func (d *Discoverer) Discover(rawURL, discoveredFrom string, depth int) error {
	return d.add(rawURL, discoveredFrom, depth, false)
}

func (d *Discoverer) add(rawURL, discoveredFrom string, depth int, isSeed bool) error {
	normalized, err := d.normalizer.Normalize(rawURL)
	if err != nil {
		return fmt.Errorf("frontier: discover: normalize %s: %w", rawURL, err)
	}
	host, err := urlutil.ExtractHost(normalized)
	if err != nil {
		return fmt.Errorf("frontier: discover: extract host %s: %w", rawURL, err)
	}
	hash := urlutil.Hash(normalized)

	item := NewURLItem(rawURL, normalized, host, depth, discoveredFrom)
	if !d.frontier.Push(item) {
		return nil // duplicate or over a limit, not an error
	}

	if err := d.pages.Register(hash, rawURL, isSeed); err != nil {
		return fmt.Errorf("frontier: discover: register %s: %w", rawURL, err)
	}
	return nil
}

// Drain pops every URL currently in the frontier and marks it
// visited, without doing anything else with it — used once the
// corresponding PageDB rows have already been populated by a fetcher
// this package doesn't implement.
func (d *Discoverer) Drain() int {
	n := 0
	for {
		item := d.frontier.Pop()
		if item == nil {
			break
		}
		d.frontier.MarkVisited(item.NormalizedURL)
		n++
	}
	return n
}
