package pagedb

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLitePageDB is a concrete PageDB backed by sqlite, adapted from the
// teacher's internal/storage.Database: same WAL/busy-timeout dial
// string, same single-writer connection pool, same mutex-guarded
// read/write split — narrowed from the teacher's full SEO schema down
// to exactly the fields spec §3's PageInfo names.
type SQLitePageDB struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if absent) the PageDB at path.
func Open(path string) (*SQLitePageDB, error) {
	dsn := fmt.Sprintf("%s?_journal=WAL&_synchronous=NORMAL&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("pagedb: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pagedb: ping %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	p := &SQLitePageDB{db: db}
	if err := p.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// newWithDB wraps an already-open *sql.DB without touching its schema,
// the seam unit tests use to inject a github.com/DATA-DOG/go-sqlmock
// connection instead of a real sqlite file.
func newWithDB(db *sql.DB) *SQLitePageDB {
	return &SQLitePageDB{db: db}
}

func (p *SQLitePageDB) initSchema() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS pages (
		hash           INTEGER PRIMARY KEY,
		url            TEXT NOT NULL,
		is_seed        INTEGER NOT NULL DEFAULT 0,
		n_crawls       INTEGER NOT NULL DEFAULT 0,
		success_crawls INTEGER NOT NULL DEFAULT 0,
		last_crawl     INTEGER NOT NULL DEFAULT 0,
		first_seen     DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := p.db.Exec(ddl); err != nil {
		return fmt.Errorf("pagedb: create schema: %w", err)
	}
	return nil
}

// GetInfo implements PageDB.
func (p *SQLitePageDB) GetInfo(hash uint64) (*PageInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var info PageInfo
	var isSeed int
	err := p.db.QueryRow(
		`SELECT url, is_seed, n_crawls, success_crawls, last_crawl FROM pages WHERE hash = ?`,
		int64(hash),
	).Scan(&info.URL, &isSeed, &info.NCrawls, &info.SuccessCrawls, &info.LastCrawl)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pagedb: get_info: %w", err)
	}
	info.IsSeed = isSeed != 0
	return &info, nil
}

// Add implements PageDB.
func (p *SQLitePageDB) Add(page CrawledPage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	success := 0
	if page.Success {
		success = 1
	}

	_, err := p.db.Exec(`
		INSERT INTO pages (hash, url, n_crawls, success_crawls, last_crawl)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			n_crawls = n_crawls + 1,
			success_crawls = success_crawls + excluded.success_crawls,
			last_crawl = excluded.last_crawl
	`, int64(page.Hash), page.URL, success, page.FetchedAt.Unix())

	if err != nil {
		return fmt.Errorf("pagedb: add: %w", err)
	}
	return nil
}

// Register implements PageDB.
func (p *SQLitePageDB) Register(hash uint64, url string, isSeed bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	seed := 0
	if isSeed {
		seed = 1
	}

	_, err := p.db.Exec(`
		INSERT INTO pages (hash, url, is_seed)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, int64(hash), url, seed)

	if err != nil {
		return fmt.Errorf("pagedb: register: %w", err)
	}
	return nil
}

// Stream implements PageDB.
func (p *SQLitePageDB) Stream(fn func(hash uint64, info *PageInfo) error) error {
	p.mu.RLock()
	rows, err := p.db.Query(`SELECT hash, url, is_seed, n_crawls, success_crawls, last_crawl FROM pages`)
	p.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("pagedb: stream query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash int64
		var info PageInfo
		var isSeed int
		if err := rows.Scan(&hash, &info.URL, &isSeed, &info.NCrawls, &info.SuccessCrawls, &info.LastCrawl); err != nil {
			return fmt.Errorf("pagedb: stream scan: %w", err)
		}
		info.IsSeed = isSeed != 0
		if err := fn(uint64(hash), &info); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close implements PageDB.
func (p *SQLitePageDB) Close() error {
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("pagedb: close: %w", err)
	}
	return nil
}
