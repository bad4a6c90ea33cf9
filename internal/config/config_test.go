package config

import (
	"path/filepath"
	"testing"

	spidertesting "github.com/spider-crawler/spider/internal/testing"
)

func TestDefaultSchedulerConfigHasSafeMargin(t *testing.T) {
	cfg := DefaultSchedulerConfig()
	spidertesting.Assert(t, cfg.Margin).Named("default margin").Equals(float32(-1))
	spidertesting.Assert(t, cfg.Persist).IsTrue()
}

func TestSchedulerConfigValidateClampsNegativeMargin(t *testing.T) {
	cfg := &SchedulerConfig{Margin: -5}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	spidertesting.Assert(t, cfg.Margin).Equals(float32(-1))
}

func TestSchedulerConfigSaveLoadRoundTrips(t *testing.T) {
	cfg := DefaultSchedulerConfig()
	cfg.FreqDefault = 0.5
	cfg.MaxNCrawls = 10

	path := filepath.Join(t.TempDir(), "scheduler.json")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadSchedulerConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	spidertesting.Assert(t, loaded.FreqDefault).Equals(float32(0.5))
	spidertesting.Assert(t, loaded.MaxNCrawls).Equals(uint64(10))
}

func TestDefaultScheduleDirectoryAppendsSuffix(t *testing.T) {
	dir := DefaultScheduleDirectory("/var/data/pages.db")
	spidertesting.Assert(t, dir).Equals("/var/data/pages.db_freqs")
}

func TestCrawlConfigCloneIsIndependent(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.IgnoreQueryParams[0] = "mutated"

	spidertesting.Assert(t, cfg.IgnoreQueryParams[0]).NotEquals("mutated")
}
