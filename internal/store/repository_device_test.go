package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/models"
)

func newTestDeviceRepo(t *testing.T) (*deviceRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.Nop()
	repo := &deviceRepository{
		DB:     &DB{DB: db, logger: l},
		logger: l,
	}
	return repo, mock, db
}

func deviceColumns() []string {
	return []string{
		"device_id", "name", "type", "app_version", "last_sync", "last_sync_success",
		"token", "pending_conflicts", "conflict_total", "registered_at",
	}
}

func TestRegisterDevice_Success(t *testing.T) {
	repo, mock, db := newTestDeviceRepo(t)
	defer db.Close()

	now := time.Now()
	info := models.DeviceInfo{Name: "Gate 3 handheld", Type: "handheld", AppVersion: "2.1.0"}

	rows := sqlmock.
		NewRows(deviceColumns()).
		AddRow("guard-1", info.Name, info.Type, info.AppVersion, nil, false,
			"token-1", 0, 0, now)

	mock.ExpectQuery("INSERT INTO devices").
		WithArgs("guard-1", info.Name, info.Type, info.AppVersion, "token-1").
		WillReturnRows(rows)

	device, err := repo.Register(context.Background(), "guard-1", info, "token-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if device.DeviceID != "guard-1" {
		t.Errorf("expected device id guard-1, got %s", device.DeviceID)
	}
	if device.Token != "token-1" {
		t.Errorf("expected token token-1, got %s", device.Token)
	}
	if device.LastSync != nil {
		t.Errorf("expected nil last sync on first registration, got %v", device.LastSync)
	}
}

func TestRegisterDevice_UnexpectedDBError(t *testing.T) {
	repo, mock, db := newTestDeviceRepo(t)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO devices").
		WillReturnError(errors.New("db network error"))

	_, err := repo.Register(context.Background(), "guard-1", models.DeviceInfo{}, "token-1")
	if !errors.Is(err, ErrExecutingQuery) {
		t.Fatalf("expected wrapped ErrExecutingQuery, got %v", err)
	}
}

func TestGetDevice_Success(t *testing.T) {
	repo, mock, db := newTestDeviceRepo(t)
	defer db.Close()

	now := time.Now()
	lastSync := now.Add(-time.Hour)

	rows := sqlmock.
		NewRows(deviceColumns()).
		AddRow("guard-1", "Gate 3 handheld", "handheld", "2.1.0", lastSync, true,
			"token-1", 2, 5, now)

	mock.ExpectQuery("FROM devices").
		WithArgs("guard-1").
		WillReturnRows(rows)

	device, err := repo.Get(context.Background(), "guard-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if device.LastSync == nil || !device.LastSync.Equal(lastSync) {
		t.Errorf("unexpected last sync: %v", device.LastSync)
	}
	if device.PendingConflicts != 2 {
		t.Errorf("expected 2 pending conflicts, got %d", device.PendingConflicts)
	}
	if device.ConflictTotal != 5 {
		t.Errorf("expected conflict total 5, got %d", device.ConflictTotal)
	}
}

func TestGetDevice_NotFound(t *testing.T) {
	repo, mock, db := newTestDeviceRepo(t)
	defer db.Close()

	mock.ExpectQuery("FROM devices").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestRecordSyncAttempt_Success(t *testing.T) {
	repo, mock, db := newTestDeviceRepo(t)
	defer db.Close()

	mock.ExpectQuery("UPDATE devices").
		WithArgs("guard-1", true).
		WillReturnRows(sqlmock.NewRows([]string{"device_id"}).AddRow("guard-1"))

	if err := repo.RecordSyncAttempt(context.Background(), "guard-1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecordSyncAttempt_NotFound(t *testing.T) {
	repo, mock, db := newTestDeviceRepo(t)
	defer db.Close()

	mock.ExpectQuery("UPDATE devices").
		WithArgs("ghost", false).
		WillReturnError(sql.ErrNoRows)

	err := repo.RecordSyncAttempt(context.Background(), "ghost", false)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestUpdateConflictCounters_Success(t *testing.T) {
	repo, mock, db := newTestDeviceRepo(t)
	defer db.Close()

	mock.ExpectQuery("UPDATE devices").
		WithArgs("guard-1", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"device_id"}).AddRow("guard-1"))

	if err := repo.UpdateConflictCounters(context.Background(), "guard-1", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecrementPendingConflicts_NotFound(t *testing.T) {
	repo, mock, db := newTestDeviceRepo(t)
	defer db.Close()

	mock.ExpectQuery("UPDATE devices").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	err := repo.DecrementPendingConflicts(context.Background(), "ghost")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}
