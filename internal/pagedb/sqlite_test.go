package pagedb

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	spidertesting "github.com/spider-crawler/spider/internal/testing"
)

func TestGetInfoReturnsNilWhenUnknown(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT url, is_seed, n_crawls, success_crawls, last_crawl FROM pages").
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	p := newWithDB(db)
	info, err := p.GetInfo(42)
	if err != nil {
		t.Fatalf("get_info: %v", err)
	}
	spidertesting.Assert(t, info).Named("missing page info").IsNil()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetInfoReturnsKnownPage(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"url", "is_seed", "n_crawls", "success_crawls", "last_crawl"}).
		AddRow("https://example.com/", 0, 5, 4, int64(1700000000))
	mock.ExpectQuery("SELECT url, is_seed, n_crawls, success_crawls, last_crawl FROM pages").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	p := newWithDB(db)
	info, err := p.GetInfo(7)
	if err != nil {
		t.Fatalf("get_info: %v", err)
	}
	spidertesting.Assert(t, info).Named("page info").IsNotNil()
	spidertesting.Assert(t, info.URL).Equals("https://example.com/")
	spidertesting.Assert(t, info.NCrawls).Equals(uint64(5))
	spidertesting.Assert(t, info.Rate()).Equals(0.8)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAddUpsertsCrawlCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO pages").
		WithArgs(int64(1), "https://example.com/", 1, int64(1700000100)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	p := newWithDB(db)
	err = p.Add(CrawledPage{
		Hash:      1,
		URL:       "https://example.com/",
		Success:   true,
		FetchedAt: time.Unix(1700000100, 0),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRegisterIsNoOpOnConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO pages").
		WithArgs(int64(9), "https://example.com/page", 0).
		WillReturnResult(sqlmock.NewResult(0, 0))

	p := newWithDB(db)
	if err := p.Register(9, "https://example.com/page", false); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

