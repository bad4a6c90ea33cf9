// Package config defines configuration for the scheduler and its discovery frontier.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// TraversalMode defines how newly discovered URLs are ordered before
// they are registered with PageDB.
type TraversalMode string

const (
	BFS TraversalMode = "bfs" // Breadth-First Search
	DFS TraversalMode = "dfs" // Depth-First Search
)

// CrawlConfig holds configuration for the discovery frontier: URL
// normalization and traversal ordering. It intentionally does not carry
// fetch, render, or auth settings — those belong to the fetcher, which
// is external to the scheduler (see spec §1 scope).
type CrawlConfig struct {
	// Traversal mode for the discovery frontier: BFS or DFS.
	TraversalMode TraversalMode `json:"traversal_mode"`

	// Maximum discovery depth (0 = unlimited).
	MaxDepth int `json:"max_depth"`

	// Maximum number of URLs the frontier will admit (0 = unlimited).
	MaxURLs int `json:"max_urls"`

	// Query parameters to ignore during normalization (utm_*, gclid, etc.)
	IgnoreQueryParams []string `json:"ignore_query_params"`

	// Sort query parameters for normalization.
	SortQueryParams bool `json:"sort_query_params"`

	// Remove trailing slash for normalization.
	RemoveTrailingSlash bool `json:"remove_trailing_slash"`

	// Convert to lowercase for normalization.
	LowercaseURLs bool `json:"lowercase_urls"`
}

// DefaultConfig returns a CrawlConfig with sensible defaults.
func DefaultConfig() *CrawlConfig {
	return &CrawlConfig{
		TraversalMode: BFS,
		MaxDepth:      0,
		MaxURLs:       0,
		IgnoreQueryParams: []string{
			"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
			"gclid", "fbclid", "msclkid", "ref", "source",
		},
		SortQueryParams:     true,
		RemoveTrailingSlash: true,
		LowercaseURLs:       true,
	}
}

// Validate normalizes out-of-range values in place.
func (c *CrawlConfig) Validate() error {
	if c.MaxDepth < 0 {
		c.MaxDepth = 0
	}
	if c.MaxURLs < 0 {
		c.MaxURLs = 0
	}
	return nil
}

// Save saves the configuration to a JSON file.
func (c *CrawlConfig) Save(filePath string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load loads configuration from a JSON file.
func Load(filePath string) (*CrawlConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Clone creates a deep copy of the configuration.
func (c *CrawlConfig) Clone() *CrawlConfig {
	clone := *c
	clone.IgnoreQueryParams = make([]string, len(c.IgnoreQueryParams))
	copy(clone.IgnoreQueryParams, c.IgnoreQueryParams)
	return &clone
}

// SchedulerConfig holds configuration for a frequency-driven scheduler
// instance, mirroring the knobs enumerated in spec §6.
type SchedulerConfig struct {
	// Directory is the on-disk path of the schedule. The ordered store
	// opens it as a single sqlite database file (with its -wal/-shm
	// files beside it); no directory is created. Empty means the
	// caller must derive one (e.g. "<pagedb.path>_freqs").
	Directory string `json:"directory"`

	// Persist, if false, removes the schedule file and its -wal/-shm
	// files on Delete.
	Persist bool `json:"persist"`

	// Margin is the fractional earliness slack for backpressure;
	// -1 disables the margin check entirely.
	Margin float32 `json:"margin"`

	// MaxNCrawls caps a page's lifetime crawl count; 0 = unlimited.
	MaxNCrawls uint64 `json:"max_n_crawls"`

	// FreqDefault is the fallback crawl frequency (crawls/sec) used by
	// load_simple when a page has no observed rate.
	FreqDefault float32 `json:"freq_default"`

	// FreqScale scales a page's observed rate() into a frequency,
	// when both FreqScale and the observed rate are positive.
	FreqScale float32 `json:"freq_scale"`
}

// DefaultSchedulerConfig returns a SchedulerConfig with spec-mandated defaults.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Persist:     true,
		Margin:      -1,
		MaxNCrawls:  0,
		FreqDefault: 1.0 / 86400, // once a day, absent any better signal
		FreqScale:   0,
	}
}

// Validate normalizes out-of-range values in place.
func (c *SchedulerConfig) Validate() error {
	if c.Margin < 0 {
		c.Margin = -1
	}
	return nil
}

// Save saves the configuration to a JSON file.
func (c *SchedulerConfig) Save(filePath string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scheduler config: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write scheduler config file: %w", err)
	}
	return nil
}

// LoadSchedulerConfig loads configuration from a JSON file.
func LoadSchedulerConfig(filePath string) (*SchedulerConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scheduler config file: %w", err)
	}

	cfg := DefaultSchedulerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse scheduler config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler config: %w", err)
	}
	return cfg, nil
}

// DefaultScheduleDirectory derives the on-disk schedule path from a
// PageDB path, following spec §6's "<pagedb.path>_freqs" convention.
func DefaultScheduleDirectory(pagedbPath string) string {
	return pagedbPath + "_freqs"
}
