package scheduler

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/mmap"

	"github.com/spider-crawler/spider/internal/orderedstore"
	"github.com/spider-crawler/spider/internal/pagedb"
)

// LoadSimple streams every (hash, PageInfo) pair known to PageDB and
// inserts a schedule entry for each one that qualifies (spec §4.2):
// it has been crawled at least once, it has been crawled fewer than
// MaxNCrawls times (0 means unlimited), and it is not a seed. Qualifying pages start at
// score 0, so the very first request() pass visits them in hash order.
//
// freq is derived per page: FreqScale*rate() when both FreqScale and
// the observed rate are positive, FreqDefault otherwise.
func (s *Scheduler) LoadSimple() (loaded int, err error) {
	cur, err := s.env.CursorOpen()
	if err != nil {
		s.errs.Push(KindInternal, err)
		return 0, err
	}

	streamErr := s.pages.Stream(func(hash uint64, info *pagedb.PageInfo) error {
		if info.NCrawls == 0 {
			return nil
		}
		if s.cfg.MaxNCrawls > 0 && info.NCrawls >= s.cfg.MaxNCrawls {
			return nil
		}
		if info.IsSeed {
			return nil
		}

		freq := s.cfg.FreqDefault
		if s.cfg.FreqScale > 0 {
			if rate := float32(info.Rate()); rate > 0 {
				freq = s.cfg.FreqScale * rate
			}
		}

		if err := cur.Put(orderedstore.Entry{Score: 0, Hash: hash, Freq: freq}); err != nil {
			return err
		}
		loaded++
		return nil
	})

	if streamErr != nil {
		cur.Abort()
		s.errs.Push(KindInternal, streamErr)
		return 0, fmt.Errorf("scheduler: load_simple: %w", streamErr)
	}

	if err := cur.Commit(); err != nil {
		s.errs.Push(KindInternal, err)
		return 0, err
	}

	s.logger().WithField("loaded", loaded).Info("load_simple complete")
	return loaded, nil
}

// PageFreq is one record of the flat {hash, freq} array spec §6 names
// as the input to load_mmap.
type PageFreq struct {
	Hash uint64
	Freq float32
}

// LoadMmap inserts a schedule entry for every element of pages at
// score 1/freq (spec §4.2): staggering first visits by the inverse of
// their frequency, rather than piling every page onto score 0 the way
// LoadSimple does, so a large seed set doesn't all compete for the
// very head of the schedule at once. Entries with freq <= 0 are
// skipped; they would produce an infinite or undefined score.
func (s *Scheduler) LoadMmap(pages []PageFreq) (loaded int, err error) {
	cur, err := s.env.CursorOpen()
	if err != nil {
		s.errs.Push(KindInternal, err)
		return 0, err
	}

	keyed := make([]struct {
		key ScheduleKey
		p   PageFreq
	}, 0, len(pages))
	for _, p := range pages {
		if p.Freq <= 0 {
			continue
		}
		keyed = append(keyed, struct {
			key ScheduleKey
			p   PageFreq
		}{ScheduleKey{Score: 1 / p.Freq, Hash: p.Hash}, p})
	}
	// Inserting in the schedule's own ascending order (spec §3) keeps
	// sqlite's btree writes sequential instead of scattering them across
	// the table on a large bulk load.
	sort.Slice(keyed, func(i, j int) bool { return keyed[i].key.Less(keyed[j].key) })

	for _, k := range keyed {
		if err := cur.Put(orderedstore.Entry{Score: k.key.Score, Hash: k.key.Hash, Freq: k.p.Freq}); err != nil {
			cur.Abort()
			s.errs.Push(KindInternal, err)
			return 0, err
		}
		loaded++
	}

	if err := cur.Commit(); err != nil {
		s.errs.Push(KindInternal, err)
		return 0, err
	}

	s.logger().WithField("loaded", loaded).Info("load_mmap complete")
	return loaded, nil
}

// mmapRecordSize is the on-disk size of one PageFreq record in a
// load_mmap source file: an 8-byte hash followed by a 4-byte freq,
// little-endian, unpadded.
const mmapRecordSize = 8 + 4

// LoadMmapFile memory-maps path and decodes it as a flat array of
// PageFreq records, then delegates to LoadMmap. This is the literal
// "MMapArray of PageFreq" contract from spec §6: the caller hands the
// scheduler a path, not a pre-built slice. Records are read off the
// mapping with ReadAt and decoded into one slice before loading.
func (s *Scheduler) LoadMmapFile(path string) (loaded int, err error) {
	r, err := mmap.Open(path)
	if err != nil {
		return 0, fmt.Errorf("scheduler: load_mmap_file: open %s: %w", path, err)
	}
	defer r.Close()

	size := r.Len()
	if size%mmapRecordSize != 0 {
		return 0, fmt.Errorf("scheduler: load_mmap_file: %s: size %d not a multiple of record size %d", path, size, mmapRecordSize)
	}

	n := size / mmapRecordSize
	out := make([]PageFreq, n)
	buf := make([]byte, mmapRecordSize)

	for i := 0; i < n; i++ {
		off := int64(i * mmapRecordSize)
		if _, err := r.ReadAt(buf, off); err != nil {
			return 0, fmt.Errorf("scheduler: load_mmap_file: read record %d: %w", i, err)
		}
		out[i] = PageFreq{
			Hash: binary.LittleEndian.Uint64(buf[0:8]),
			Freq: math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])),
		}
	}
	return s.LoadMmap(out)
}
