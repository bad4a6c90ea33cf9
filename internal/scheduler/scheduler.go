// Package scheduler implements the frequency-driven URL scheduler: a
// schedule of (score, hash) keys backed by an ordered store, bulk
// loaders that seed it from PageDB, a request engine that dequeues the
// head and reinserts it at score += 1/freq, and admin operations
// (dump, delete).
package scheduler

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/spider-crawler/spider/internal/config"
	"github.com/spider-crawler/spider/internal/orderedstore"
	"github.com/spider-crawler/spider/internal/pagedb"
)

// Scheduler owns one schedule file and the PageDB it schedules
// against. It is the sole writer of its ordered store; callers must
// not open a second Scheduler against the same path (spec §5).
type Scheduler struct {
	cfg     *config.SchedulerConfig
	env     *orderedstore.Environment
	pages   pagedb.PageDB
	log     *logrus.Logger
	errs    ErrorStack
	rate    *HostRateLimiter
	metrics *schedulerMetrics
}

// SetHostRateLimiter attaches a politeness layer to Request: once set,
// a candidate URL is only emitted if its host's crawl delay has
// elapsed. This is a separate concern from the margin check, which
// reasons about a single page's own frequency, not cross-page load on
// a shared host.
func (s *Scheduler) SetHostRateLimiter(r *HostRateLimiter) {
	s.rate = r
}

// New opens or creates the schedule at cfg.Directory and binds it to
// pages. pages is treated as an external collaborator (spec §1): the
// Scheduler never closes it.
func New(cfg *config.SchedulerConfig, pages pagedb.PageDB, log *logrus.Logger) (*Scheduler, error) {
	if cfg.Directory == "" {
		return nil, fmt.Errorf("scheduler: empty schedule directory")
	}
	if log == nil {
		log = logrus.New()
	}

	env, err := orderedstore.Open(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("scheduler: new: %w", err)
	}

	return &Scheduler{
		cfg:     cfg,
		env:     env,
		pages:   pages,
		log:     log,
		metrics: newSchedulerMetrics(),
	}, nil
}

// Err reports the scheduler's accumulated error stack (spec §7). A
// caller inspecting Err() after a Request/LoadSimple/LoadMmap call can
// distinguish "nothing left to do" from "something failed along the
// way" without every method needing its own bespoke error type.
func (s *Scheduler) Err() error {
	if s.errs.Empty() {
		return nil
	}
	return &s.errs
}

// ClearErr discards the accumulated error stack.
func (s *Scheduler) ClearErr() { s.errs.Clear() }

// Add records that a page was crawled (spec §4.5): a pass-through to
// PageDB.Add. The scheduler itself is not modified by Add; only
// Request advances scores. Failure is surfaced as an internal error
// on the error stack, same as every other PageDB round-trip.
func (s *Scheduler) Add(page pagedb.CrawledPage) error {
	if err := s.pages.Add(page); err != nil {
		s.errs.Push(KindInternal, err)
		return fmt.Errorf("scheduler: add: %w", err)
	}
	return nil
}

// Close closes the underlying ordered store. It does not touch PageDB.
func (s *Scheduler) Close() error {
	return s.env.Close()
}

// Delete closes the scheduler and, unless cfg.Persist is set, removes
// the schedule entirely (spec §4.7 "Delete"): the main sqlite file plus
// its WAL-mode sidecars (-wal, -shm), which sqlite leaves behind
// whenever the database is opened with _journal=WAL.
func (s *Scheduler) Delete() error {
	path := s.env.Path()
	if err := s.env.Close(); err != nil {
		return fmt.Errorf("scheduler: delete: %w", err)
	}
	if s.cfg.Persist {
		return nil
	}
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("scheduler: delete: remove %s: %w", p, err)
		}
	}
	return nil
}

func (s *Scheduler) logger() *logrus.Logger {
	if s.log == nil {
		return logrus.StandardLogger()
	}
	return s.log
}
