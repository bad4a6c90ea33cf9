package scheduler

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spider-crawler/spider/internal/orderedstore"
)

// Dump writes the entire schedule to w, one line per entry in
// ascending (score, hash) order, formatted "%.2e %016x %.2e\n" as
// score, hash, freq (spec §4.6). The underlying transaction is always
// aborted, never committed: Dump is read-only and must not risk
// retrying a partial write against the store.
func (s *Scheduler) Dump(w io.Writer) (count int, err error) {
	cur, err := s.env.CursorOpen()
	if err != nil {
		s.errs.Push(KindInternal, err)
		return 0, err
	}
	defer cur.Abort()

	bw := bufio.NewWriter(w)
	walkErr := cur.All(func(e orderedstore.Entry) error {
		if _, err := fmt.Fprintf(bw, "%.2e %016x %.2e\n", e.Score, e.Hash, e.Freq); err != nil {
			return err
		}
		count++
		return nil
	})
	if walkErr != nil {
		s.errs.Push(KindInternal, walkErr)
		return count, walkErr
	}
	if err := bw.Flush(); err != nil {
		s.errs.Push(KindInternal, err)
		return count, err
	}
	return count, nil
}

// Entries returns every schedule entry in ascending (score, hash)
// order, for callers (like internal/snapshot) that want an in-memory
// copy rather than a streamed write.
func (s *Scheduler) Entries() ([]orderedstore.Entry, error) {
	cur, err := s.env.CursorOpen()
	if err != nil {
		s.errs.Push(KindInternal, err)
		return nil, err
	}
	defer cur.Abort()

	var entries []orderedstore.Entry
	if err := cur.All(func(e orderedstore.Entry) error {
		entries = append(entries, e)
		return nil
	}); err != nil {
		s.errs.Push(KindInternal, err)
		return nil, err
	}
	return entries, nil
}

// QueueDepth returns the number of entries currently in the schedule,
// updating the Admin gauge as a side effect.
func (s *Scheduler) QueueDepth() (int, error) {
	cur, err := s.env.CursorOpen()
	if err != nil {
		s.errs.Push(KindInternal, err)
		return 0, err
	}
	defer cur.Abort()

	var n int
	if err := cur.All(func(orderedstore.Entry) error { n++; return nil }); err != nil {
		s.errs.Push(KindInternal, err)
		return 0, err
	}
	s.metrics.queueDepth.Set(float64(n))
	return n, nil
}
