package frontier

import (
	"testing"

	"github.com/spider-crawler/spider/internal/config"
	"github.com/spider-crawler/spider/internal/pagedb"
	spidertesting "github.com/spider-crawler/spider/internal/testing"
	"github.com/spider-crawler/spider/internal/urlutil"
)

type fakePageDB struct {
	registered map[uint64]bool
	seeds      map[uint64]bool
}

func newFakePageDB() *fakePageDB {
	return &fakePageDB{registered: make(map[uint64]bool), seeds: make(map[uint64]bool)}
}

func (f *fakePageDB) GetInfo(hash uint64) (*pagedb.PageInfo, error) { return nil, nil }
func (f *fakePageDB) Add(pagedb.CrawledPage) error                  { return nil }
func (f *fakePageDB) Stream(func(uint64, *pagedb.PageInfo) error) error {
	return nil
}
func (f *fakePageDB) Register(hash uint64, url string, isSeed bool) error {
	f.registered[hash] = true
	f.seeds[hash] = isSeed
	return nil
}
func (f *fakePageDB) Close() error { return nil }

func TestDiscovererSeedRegistersAsSeed(t *testing.T) {
	pages := newFakePageDB()
	f := NewMemoryFrontier(config.BFS, 0, 0)
	normalizer := urlutil.DefaultNormalizer(nil)
	d := NewDiscoverer(f, pages, normalizer)

	if err := d.Seed("https://example.com/"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	hash := urlutil.Hash("https://example.com/")
	spidertesting.Assert(t, pages.registered[hash]).Named("registered").IsTrue()
	spidertesting.Assert(t, pages.seeds[hash]).Named("marked as seed").IsTrue()
	spidertesting.Assert(t, f.Size()).Equals(1)
}

func TestDiscovererDiscoverIsNotASeed(t *testing.T) {
	pages := newFakePageDB()
	f := NewMemoryFrontier(config.BFS, 0, 0)
	normalizer := urlutil.DefaultNormalizer(nil)
	d := NewDiscoverer(f, pages, normalizer)

	if err := d.Discover("https://example.com/page", "https://example.com/", 1); err != nil {
		t.Fatalf("discover: %v", err)
	}

	hash := urlutil.Hash("https://example.com/page")
	spidertesting.Assert(t, pages.seeds[hash]).Named("not a seed").IsFalse()
}

func TestDiscovererSkipsDuplicateWithoutRegistering(t *testing.T) {
	pages := newFakePageDB()
	f := NewMemoryFrontier(config.BFS, 0, 0)
	normalizer := urlutil.DefaultNormalizer(nil)
	d := NewDiscoverer(f, pages, normalizer)

	if err := d.Seed("https://example.com/"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	delete(pages.registered, urlutil.Hash("https://example.com/"))

	if err := d.Seed("https://example.com/"); err != nil {
		t.Fatalf("seed again: %v", err)
	}
	spidertesting.Assert(t, pages.registered[urlutil.Hash("https://example.com/")]).Named("second seed not re-registered").IsFalse()
}
