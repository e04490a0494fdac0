package sink

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var (
	pgInsert = DialectPostgres.rebind(insertQuery)
	pgUpdate = DialectPostgres.rebind(updateQuery)
)

func TestRebind(t *testing.T) {
	for _, tc := range []struct {
		dialect Dialect
		in      string
		want    string
	}{
		{DialectPostgres, "a = ? AND b = ?", "a = $1 AND b = $2"},
		{DialectSQLite, "a = ? AND b = ?", "a = ? AND b = ?"},
		{DialectPostgres, "no args", "no args"},
	} {
		if got := tc.dialect.rebind(tc.in); got != tc.want {
			t.Errorf("%s.rebind(%q) = %q, want %q", tc.dialect, tc.in, got, tc.want)
		}
	}
}

func TestSQLSink_SaveAppend(t *testing.T) {
	db, mock := newMockDB(t)
	records := testRecords()

	mock.ExpectBegin()
	mock.ExpectExec(pgInsert).
		WithArgs("Live Show", "2024-03-15", "Hall 1", "https://eplus.jp/events/123", nil, "eplus", testNow, testNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(pgInsert).
		WithArgs("Undated", nil, nil, nil, nil, "eplus", testNow, testNow).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	s := NewSQLSink(db, DialectPostgres, ModeAppend)
	n, err := s.Save(context.Background(), records)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Save() = %d, want 2", n)
	}
}

func TestSQLSink_SaveUpsert(t *testing.T) {
	tests := []struct {
		name        string
		updatedRows int64
		wantInsert  bool
	}{
		{"existing row is updated", 1, false},
		{"missing row is inserted", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			records := testRecords()

			mock.ExpectBegin()
			mock.ExpectExec(pgUpdate).
				WithArgs("Live Show", "2024-03-15", "Hall 1", nil, "eplus", testNow, "https://eplus.jp/events/123").
				WillReturnResult(sqlmock.NewResult(0, tt.updatedRows))
			if tt.wantInsert {
				mock.ExpectExec(pgInsert).
					WithArgs("Live Show", "2024-03-15", "Hall 1", "https://eplus.jp/events/123", nil, "eplus", testNow, testNow).
					WillReturnResult(sqlmock.NewResult(1, 1))
			}
			// records without a URL have no key and are always inserted
			mock.ExpectExec(pgInsert).
				WithArgs("Undated", nil, nil, nil, nil, "eplus", testNow, testNow).
				WillReturnResult(sqlmock.NewResult(2, 1))
			mock.ExpectCommit()

			s := NewSQLSink(db, DialectPostgres, ModeUpsert)
			n, err := s.Save(context.Background(), records)
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if n != 2 {
				t.Errorf("Save() = %d, want 2", n)
			}
		})
	}
}

func TestSQLSink_SaveRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(pgInsert).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(pgInsert).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	s := NewSQLSink(db, DialectPostgres, ModeAppend)
	n, err := s.Save(context.Background(), testRecords())
	if err == nil {
		t.Fatal("Save() expected error")
	}
	if n != 0 {
		t.Errorf("Save() = %d on error, want 0", n)
	}
}

func TestSQLSink_SaveBeginError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	s := NewSQLSink(db, DialectPostgres, ModeAppend)
	if _, err := s.Save(context.Background(), testRecords()); err == nil {
		t.Fatal("Save() expected error")
	}
}

func TestSQLSink_SaveEmpty(t *testing.T) {
	db, _ := newMockDB(t)

	s := NewSQLSink(db, DialectPostgres, ModeAppend)
	n, err := s.Save(context.Background(), nil)
	if err != nil {
		t.Fatalf("Save(nil) error = %v", err)
	}
	if n != 0 {
		t.Errorf("Save(nil) = %d, want 0", n)
	}
}

func TestSQLSink_Name(t *testing.T) {
	db, _ := newMockDB(t)
	if got := NewSQLSink(db, DialectPostgres, "").Name(); got != "postgres" {
		t.Errorf("Name() = %q, want postgres", got)
	}
	if got := NewSQLSink(db, DialectSQLite, "").Name(); got != "sqlite" {
		t.Errorf("Name() = %q, want sqlite", got)
	}
}
