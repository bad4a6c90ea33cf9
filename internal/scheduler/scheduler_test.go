package scheduler

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spider-crawler/spider/internal/config"
	"github.com/spider-crawler/spider/internal/pagedb"
	spidertesting "github.com/spider-crawler/spider/internal/testing"
)

// fakePageDB is an in-memory pagedb.PageDB for scheduler tests, so
// the scheduler's own tests don't need a real sqlite-backed PageDB.
type fakePageDB struct {
	pages map[uint64]*pagedb.PageInfo
}

func newFakePageDB() *fakePageDB {
	return &fakePageDB{pages: make(map[uint64]*pagedb.PageInfo)}
}

func (f *fakePageDB) GetInfo(hash uint64) (*pagedb.PageInfo, error) {
	return f.pages[hash], nil
}

func (f *fakePageDB) Add(page pagedb.CrawledPage) error {
	info := f.pages[page.Hash]
	if info == nil {
		return nil
	}
	info.NCrawls++
	if page.Success {
		info.SuccessCrawls++
	}
	info.LastCrawl = page.FetchedAt.Unix()
	return nil
}

func (f *fakePageDB) Register(hash uint64, url string, isSeed bool) error {
	if _, ok := f.pages[hash]; ok {
		return nil
	}
	f.pages[hash] = &pagedb.PageInfo{URL: url, IsSeed: isSeed}
	return nil
}

func (f *fakePageDB) Stream(fn func(hash uint64, info *pagedb.PageInfo) error) error {
	for h, info := range f.pages {
		if err := fn(h, info); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakePageDB) Close() error { return nil }

func newTestScheduler(t *testing.T, pages *fakePageDB) *Scheduler {
	t.Helper()
	cfg := config.DefaultSchedulerConfig()
	cfg.Directory = filepath.Join(t.TempDir(), "schedule.db")

	s, err := New(cfg, pages, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadSimpleSkipsSeedsAndUncrawledPages(t *testing.T) {
	pages := newFakePageDB()
	pages.pages[1] = &pagedb.PageInfo{URL: "https://a.example/", NCrawls: 3, SuccessCrawls: 3}
	pages.pages[2] = &pagedb.PageInfo{URL: "https://seed.example/", NCrawls: 5, SuccessCrawls: 5, IsSeed: true}
	pages.pages[3] = &pagedb.PageInfo{URL: "https://never.example/", NCrawls: 0}

	s := newTestScheduler(t, pages)

	loaded, err := s.LoadSimple()
	if err != nil {
		t.Fatalf("load_simple: %v", err)
	}
	spidertesting.Assert(t, loaded).Named("loaded count").Equals(1)

	depth, err := s.QueueDepth()
	if err != nil {
		t.Fatalf("queue depth: %v", err)
	}
	spidertesting.Assert(t, depth).Equals(1)
}

func TestLoadMmapStaggersByInverseFrequency(t *testing.T) {
	pages := newFakePageDB()
	s := newTestScheduler(t, pages)

	loaded, err := s.LoadMmap([]PageFreq{
		{Hash: 1, Freq: 0.5},
		{Hash: 2, Freq: 0}, // skipped: non-positive freq
	})
	if err != nil {
		t.Fatalf("load_mmap: %v", err)
	}
	spidertesting.Assert(t, loaded).Equals(1)

	entries, err := s.Entries()
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	spidertesting.Assert(t, len(entries)).Equals(1)
	spidertesting.Assert(t, entries[0].Score).Equals(float32(2)) // 1/0.5
}

func TestRequestReinsertsAtAdvancedScore(t *testing.T) {
	pages := newFakePageDB()
	pages.pages[1] = &pagedb.PageInfo{URL: "https://a.example/", NCrawls: 1, SuccessCrawls: 1}
	s := newTestScheduler(t, pages)
	s.cfg.Margin = -1 // disable backpressure for this test

	if _, err := s.LoadMmap([]PageFreq{{Hash: 1, Freq: 2}}); err != nil {
		t.Fatalf("load_mmap: %v", err)
	}

	urls, err := s.Request(1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	spidertesting.Assert(t, urls).Equals([]string{"https://a.example/"})

	entries, err := s.Entries()
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	spidertesting.Assert(t, len(entries)).Equals(1)
	spidertesting.Assert(t, entries[0].Score).Equals(float32(0.5) + float32(0.5)) // 1/2 + 1/2
}

func TestRequestRetiresPageThatReachedMaxNCrawls(t *testing.T) {
	pages := newFakePageDB()
	pages.pages[1] = &pagedb.PageInfo{URL: "https://a.example/", NCrawls: 5, SuccessCrawls: 5}
	s := newTestScheduler(t, pages)
	s.cfg.MaxNCrawls = 5
	s.cfg.Margin = -1

	if _, err := s.LoadMmap([]PageFreq{{Hash: 1, Freq: 1}}); err != nil {
		t.Fatalf("load_mmap: %v", err)
	}

	urls, err := s.Request(1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	spidertesting.Assert(t, len(urls)).Named("retired page yields no url").Equals(0)

	entries, err := s.Entries()
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	spidertesting.Assert(t, len(entries)).Named("entry removed, not reinserted").Equals(0)
}

// TestRequestMarginInterruptsBatchWithoutMutating covers spec §4.4's
// backpressure path: a page whose last crawl is too recent relative to
// its frequency must halt the batch, leaving its (score, hash) exactly
// as it was rather than being deleted, retired, or reinserted.
func TestRequestMarginInterruptsBatchWithoutMutating(t *testing.T) {
	pages := newFakePageDB()
	pages.pages[1] = &pagedb.PageInfo{
		URL: "https://a.example/", NCrawls: 1, SuccessCrawls: 1,
		LastCrawl: time.Now().Unix(),
	}
	s := newTestScheduler(t, pages)
	s.cfg.Margin = 0 // minInterval = 1/freq, no slack

	if _, err := s.LoadMmap([]PageFreq{{Hash: 1, Freq: 1}}); err != nil {
		t.Fatalf("load_mmap: %v", err)
	}
	before, err := s.Entries()
	if err != nil {
		t.Fatalf("entries: %v", err)
	}

	urls, err := s.Request(1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	spidertesting.Assert(t, len(urls)).Named("too-early page yields no url").Equals(0)

	after, err := s.Entries()
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	spidertesting.Assert(t, len(after)).Named("entry still present").Equals(1)
	spidertesting.Assert(t, after[0].Score).Named("score unchanged").Equals(before[0].Score)
	spidertesting.Assert(t, after[0].Hash).Named("hash unchanged").Equals(before[0].Hash)
}

func TestRequestSkipsMissingPageInfo(t *testing.T) {
	pages := newFakePageDB()
	s := newTestScheduler(t, pages)
	s.cfg.Margin = -1

	if _, err := s.LoadMmap([]PageFreq{{Hash: 99, Freq: 1}}); err != nil {
		t.Fatalf("load_mmap: %v", err)
	}

	urls, err := s.Request(1)
	if err != nil {
		t.Fatalf("request on missing page info should not be an error: %v", err)
	}
	spidertesting.Assert(t, len(urls)).Equals(0)
}

func TestDumpWritesAscendingLines(t *testing.T) {
	pages := newFakePageDB()
	s := newTestScheduler(t, pages)

	if _, err := s.LoadMmap([]PageFreq{{Hash: 1, Freq: 1}, {Hash: 2, Freq: 2}}); err != nil {
		t.Fatalf("load_mmap: %v", err)
	}

	var buf strings.Builder
	n, err := s.Dump(&buf)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	spidertesting.Assert(t, n).Equals(2)
	// hash 2 (score 1/2) sorts ahead of hash 1 (score 1/1).
	spidertesting.Assert(t, buf.String()).Equals(
		"5.00e-01 0000000000000002 2.00e+00\n" +
			"1.00e+00 0000000000000001 1.00e+00\n",
	)
}

func TestErrorStackOrdersOuterCauseFirst(t *testing.T) {
	var stack ErrorStack
	stack.Push(KindInvalidPath, errTest("bad dir"))
	stack.Push(KindInternal, errTest("commit failed"))

	spidertesting.Assert(t, stack.Len()).Equals(2)
	spidertesting.Assert(t, stack.Error()).Contains("invalid_path: bad dir")
	spidertesting.Assert(t, stack.Error()).Contains("internal: commit failed")
	spidertesting.Assert(t, stack.Error()).Named("outer cause first").Equals(
		"invalid_path: bad dir\ninternal: commit failed",
	)
}

type errTest string

func (e errTest) Error() string { return string(e) }

func TestScheduleKeyOrdering(t *testing.T) {
	a := ScheduleKey{Score: 1, Hash: 5}
	b := ScheduleKey{Score: 1, Hash: 6}
	c := ScheduleKey{Score: 2, Hash: 0}

	spidertesting.Assert(t, a.Less(b)).IsTrue()
	spidertesting.Assert(t, b.Less(c)).IsTrue()
	spidertesting.Assert(t, c.Less(a)).IsFalse()
}
