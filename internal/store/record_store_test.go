package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/models"
)

func newTestRecordStore(t *testing.T) (*jsonbRecordStore, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.Nop()
	s := &jsonbRecordStore{
		DB:     &DB{DB: db, logger: l},
		logger: l,
	}
	return s, mock, db
}

func TestRecordGet_Success(t *testing.T) {
	s, mock, db := newTestRecordStore(t)
	defer db.Close()

	rows := sqlmock.
		NewRows([]string{"data"}).
		AddRow([]byte(`{"severity":"high","zone":"B"}`))

	mock.ExpectQuery("FROM records").
		WithArgs("incidents", "inc-1").
		WillReturnRows(rows)

	record, err := s.Get(context.Background(), "incidents", "inc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record["severity"] != "high" || record["zone"] != "B" {
		t.Errorf("unexpected record: %+v", record)
	}
}

func TestRecordGet_NotFound(t *testing.T) {
	s, mock, db := newTestRecordStore(t)
	defer db.Close()

	mock.ExpectQuery("FROM records").
		WithArgs("incidents", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), "incidents", "missing")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecordCreate_ReturnsStoredSnapshot(t *testing.T) {
	s, mock, db := newTestRecordStore(t)
	defer db.Close()

	rows := sqlmock.
		NewRows([]string{"data"}).
		AddRow([]byte(`{"severity":"high"}`))

	mock.ExpectQuery("INSERT INTO records").
		WithArgs("incidents", "inc-1", []byte(`{"severity":"high"}`)).
		WillReturnRows(rows)

	record, err := s.Create(context.Background(), "incidents", "inc-1", models.Record{"severity": "high"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record["severity"] != "high" {
		t.Errorf("unexpected record: %+v", record)
	}
}

func TestRecordUpdate_NotFound(t *testing.T) {
	s, mock, db := newTestRecordStore(t)
	defer db.Close()

	mock.ExpectQuery("UPDATE records").
		WithArgs("incidents", "missing", []byte(`{"severity":"low"}`)).
		WillReturnError(sql.ErrNoRows)

	_, err := s.Update(context.Background(), "incidents", "missing", models.Record{"severity": "low"})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecordDelete_Success(t *testing.T) {
	s, mock, db := newTestRecordStore(t)
	defer db.Close()

	mock.ExpectQuery("DELETE FROM records").
		WithArgs("incidents", "inc-1").
		WillReturnRows(sqlmock.NewRows([]string{"record_id"}).AddRow("inc-1"))

	if err := s.Delete(context.Background(), "incidents", "inc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecordDelete_NotFound(t *testing.T) {
	s, mock, db := newTestRecordStore(t)
	defer db.Close()

	mock.ExpectQuery("DELETE FROM records").
		WithArgs("incidents", "missing").
		WillReturnError(sql.ErrNoRows)

	err := s.Delete(context.Background(), "incidents", "missing")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecordWrite_UnexpectedDBError(t *testing.T) {
	s, mock, db := newTestRecordStore(t)
	defer db.Close()

	mock.ExpectQuery("UPDATE records").
		WillReturnError(errors.New("db network error"))

	_, err := s.Update(context.Background(), "incidents", "inc-1", models.Record{"severity": "low"})
	if !errors.Is(err, ErrExecutingQuery) {
		t.Fatalf("expected wrapped ErrExecutingQuery, got %v", err)
	}
}
