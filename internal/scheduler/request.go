package scheduler

import (
	"fmt"
	"time"

	"github.com/spider-crawler/spider/internal/orderedstore"
	"github.com/spider-crawler/spider/internal/pagedb"
	"github.com/spider-crawler/spider/internal/urlutil"
)

// Request dequeues up to n candidate URLs from the head of the
// schedule (spec §4.4). For each head entry it consults PageDB, and:
//
//   - if the entry arrives too early (elapsed < 1/(freq*(1+margin))),
//     the whole batch is interrupted without mutating that entry —
//     its position is left exactly as it was (spec §4.4 "margin
//     check"; margin < 0 disables this check entirely).
//   - otherwise the head is always deleted, and if the page still
//     qualifies to be crawled (max_n_crawls==0 || n_crawls<max_n_crawls,
//     false when PageDB has no record at all) it is reinserted at
//     score += 1/freq and its URL is appended to the result; if it no
//     longer qualifies it is silently retired (spec §4.4 "retirement").
//
// A missing PageInfo is not an error (spec §7): it means the page was
// dropped from PageDB after being scheduled, ordinary churn the
// request loop tolerates by retiring the entry.
//
// The whole batch commits atomically: either every mutation made
// during this call lands, or none does.
func (s *Scheduler) Request(n int) (urls []string, err error) {
	if n <= 0 {
		return nil, nil
	}

	cur, err := s.env.CursorOpen()
	if err != nil {
		s.errs.Push(KindInternal, err)
		return nil, err
	}

	now := time.Now()

	for len(urls) < n {
		head, ok, err := cur.First()
		if err != nil {
			cur.Abort()
			s.errs.Push(KindInternal, err)
			return nil, err
		}
		if !ok {
			break
		}

		info, infoErr := s.pages.GetInfo(head.Hash)
		if infoErr != nil {
			cur.Abort()
			s.errs.Push(KindInternal, infoErr)
			return nil, fmt.Errorf("scheduler: request: get_info: %w", infoErr)
		}

		if s.cfg.Margin >= 0 && info != nil {
			elapsed := now.Sub(time.Unix(info.LastCrawl, 0))
			minInterval := time.Duration(float32(time.Second) / (head.Freq * (1 + s.cfg.Margin)))
			if elapsed < minInterval {
				s.metrics.marginRejections.Inc()
				break
			}
		}

		if s.rate != nil && info != nil {
			if host, hostErr := urlutil.ExtractHost(info.URL); hostErr == nil && !s.rate.CanAccess(host) {
				break
			}
		}

		if err := cur.Delete(head.Score, head.Hash); err != nil {
			cur.Abort()
			s.errs.Push(KindInternal, err)
			return nil, err
		}

		if !shouldCrawl(info, s.cfg.MaxNCrawls) {
			s.metrics.retirements.Inc()
			continue
		}

		newEntry := orderedstore.Entry{
			Score: head.Score + 1/head.Freq,
			Hash:  head.Hash,
			Freq:  head.Freq,
		}
		if err := cur.Put(newEntry); err != nil {
			cur.Abort()
			s.errs.Push(KindInternal, err)
			return nil, err
		}

		if s.rate != nil {
			if host, hostErr := urlutil.ExtractHost(info.URL); hostErr == nil {
				s.rate.RecordAccess(host)
			}
		}
		urls = append(urls, info.URL)
		s.metrics.dequeues.Inc()
	}

	if err := cur.Commit(); err != nil {
		s.errs.Push(KindInternal, err)
		return nil, err
	}

	return urls, nil
}

// shouldCrawl decides whether a page still qualifies for a visit
// (spec §4.4): absent PageInfo never qualifies, max_n_crawls == 0
// means unlimited.
func shouldCrawl(info *pagedb.PageInfo, maxNCrawls uint64) bool {
	if info == nil {
		return false
	}
	if maxNCrawls == 0 {
		return true
	}
	return info.NCrawls < maxNCrawls
}
