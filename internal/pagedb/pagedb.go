// Package pagedb provides the PageDB contract referenced by spec §1 and
// §6 ("PageDB — the page metadata store") and a concrete sqlite-backed
// implementation, adapted from the teacher's internal/storage package.
// The scheduler treats PageDB as an external collaborator — this
// package exists so the scheduler has something real to talk to in
// tests and in cmd/spider, not because PageDB's internals are in scope.
package pagedb

import "time"

// PageInfo is the read-only view of a page the scheduler consults. It
// mirrors spec §3's "PageInfo (external, read-only here)": url,
// n_crawls, last_crawl, a seed flag, and a derived rate().
type PageInfo struct {
	URL           string
	NCrawls       uint64
	SuccessCrawls uint64
	LastCrawl     int64 // epoch seconds, 0 if never crawled
	IsSeed        bool
}

// Rate returns the observed crawl success rate, 0 if never crawled.
func (p *PageInfo) Rate() float64 {
	if p.NCrawls == 0 {
		return 0
	}
	return float64(p.SuccessCrawls) / float64(p.NCrawls)
}

// CrawledPage is what a fetcher reports back via Add (spec §4.5).
type CrawledPage struct {
	Hash      uint64
	URL       string
	Success   bool
	FetchedAt time.Time
}

// PageDB is the contract the scheduler consumes (spec §6): get_info and
// add, plus a streaming enumeration for bulk loading (spec §4.2's
// HashInfoStream).
type PageDB interface {
	// GetInfo returns the page for hash, or nil if unknown (spec
	// tolerates a null PageInfo).
	GetInfo(hash uint64) (*PageInfo, error)

	// Add records that a fetch completed (spec §4.5). The scheduler
	// itself is not modified by Add; only request() advances scores.
	Add(page CrawledPage) error

	// Stream lazily enumerates every (hash, PageInfo) pair known to
	// PageDB, in no particular order, calling fn for each. A non-nil
	// error from fn aborts the stream and is returned as-is (spec
	// §4.2: "a stream that terminates abnormally fails the whole
	// load").
	Stream(fn func(hash uint64, info *PageInfo) error) error

	// Register adds a newly discovered page with zero crawl history.
	// It is a no-op if the hash is already known. This is the seam the
	// discovery frontier (internal/frontier) uses before a page can be
	// scheduled — spec Invariant 1 requires the hash be known to
	// PageDB before it appears in the schedule.
	Register(hash uint64, url string, isSeed bool) error

	// Close releases the underlying connection.
	Close() error
}
