package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
	"github.com/dkotelnikov/go-sync-ledger/internal/store"
	"github.com/dkotelnikov/go-sync-ledger/models"
)

// The fakes below mirror the observable behavior of the SQL repositories
// so the services can be exercised end to end without a database.

func recordKey(collection, recordID string) string {
	return collection + "/" + recordID
}

type fakeVersionLedger struct {
	mu   sync.Mutex
	rows map[string]*models.VersionRecord

	nextID int64
}

func newFakeVersionLedger() *fakeVersionLedger {
	return &fakeVersionLedger{rows: make(map[string]*models.VersionRecord)}
}

func (f *fakeVersionLedger) GetOrCreate(_ context.Context, collection, recordID, fingerprint, actor, deviceID string) (models.VersionRecord, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := recordKey(collection, recordID)
	if row, ok := f.rows[key]; ok {
		return *row, false, nil
	}

	f.nextID++
	row := &models.VersionRecord{
		ID:             f.nextID,
		Collection:     collection,
		RecordID:       recordID,
		Version:        1,
		Fingerprint:    fingerprint,
		LastModified:   time.Now().UTC(),
		LastModifiedBy: actor,
		DeviceID:       deviceID,
		Status:         models.StatusSynced,
	}
	f.rows[key] = row

	return *row, true, nil
}

func (f *fakeVersionLedger) Get(_ context.Context, collection, recordID string) (models.VersionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[recordKey(collection, recordID)]
	if !ok {
		return models.VersionRecord{}, store.ErrVersionNotFound
	}

	return *row, nil
}

func (f *fakeVersionLedger) Bump(_ context.Context, req store.BumpRequest) (store.BumpResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[recordKey(req.Collection, req.RecordID)]
	if !ok {
		return store.BumpResult{}, store.ErrVersionNotFound
	}

	if row.Fingerprint == req.Fingerprint {
		return store.BumpResult{Version: row.Version}, nil
	}
	if row.Version > req.SubmittedVersion {
		return store.BumpResult{}, fmt.Errorf("%w: version %d is behind %d", store.ErrVersionConflict, req.SubmittedVersion, row.Version)
	}

	row.Version++
	row.Fingerprint = req.Fingerprint
	row.LastModified = time.Now().UTC()
	row.LastModifiedBy = req.Actor
	row.DeviceID = req.DeviceID
	if row.Status != models.StatusConflict {
		row.Status = models.StatusSynced
	}
	row.Deleted = req.Deleted

	return store.BumpResult{Version: row.Version, Changed: true}, nil
}

func (f *fakeVersionLedger) MarkConflict(_ context.Context, collection, recordID string, res models.ConflictResolution) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[recordKey(collection, recordID)]
	if !ok {
		return store.ErrVersionNotFound
	}

	row.Status = models.StatusConflict
	row.Resolution = &res

	return nil
}

func (f *fakeVersionLedger) MarkResolved(_ context.Context, collection, recordID string, strategy models.ResolutionStrategy, resolvedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[recordKey(collection, recordID)]
	if !ok {
		return store.ErrVersionNotFound
	}

	now := time.Now().UTC()
	row.Status = models.StatusResolved
	if row.Resolution == nil {
		row.Resolution = &models.ConflictResolution{}
	}
	row.Resolution.Strategy = strategy
	row.Resolution.ResolvedBy = resolvedBy
	row.Resolution.ResolvedAt = &now

	return nil
}

func (f *fakeVersionLedger) ListChangedSince(_ context.Context, req store.ChangesSinceRequest) ([]models.VersionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	wanted := make(map[string]bool, len(req.Collections))
	for _, c := range req.Collections {
		wanted[c] = true
	}

	var out []models.VersionRecord
	for _, row := range f.rows {
		if row.Status == models.StatusConflict || !wanted[row.Collection] {
			continue
		}
		if req.Since != nil && !row.LastModified.After(*req.Since) {
			continue
		}
		out = append(out, *row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastModified.Equal(out[j].LastModified) {
			return out[i].ID < out[j].ID
		}
		return out[i].LastModified.Before(out[j].LastModified)
	})

	return out, nil
}

type fakeDeviceRepository struct {
	mu      sync.Mutex
	devices map[string]*models.DeviceSync
}

func newFakeDeviceRepository() *fakeDeviceRepository {
	return &fakeDeviceRepository{devices: make(map[string]*models.DeviceSync)}
}

func (f *fakeDeviceRepository) Register(_ context.Context, deviceID string, info models.DeviceInfo, token string) (models.DeviceSync, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if d, ok := f.devices[deviceID]; ok {
		d.Name = info.Name
		d.Type = info.Type
		d.AppVersion = info.AppVersion
		return *d, nil
	}

	d := &models.DeviceSync{
		DeviceID:     deviceID,
		Name:         info.Name,
		Type:         info.Type,
		AppVersion:   info.AppVersion,
		Token:        token,
		RegisteredAt: time.Now().UTC(),
	}
	f.devices[deviceID] = d

	return *d, nil
}

func (f *fakeDeviceRepository) Get(_ context.Context, deviceID string) (models.DeviceSync, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.devices[deviceID]
	if !ok {
		return models.DeviceSync{}, store.ErrDeviceNotFound
	}

	return *d, nil
}

func (f *fakeDeviceRepository) RecordSyncAttempt(_ context.Context, deviceID string, success bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.devices[deviceID]
	if !ok {
		return store.ErrDeviceNotFound
	}

	now := time.Now().UTC()
	d.LastSync = &now
	d.LastSyncSuccess = success

	return nil
}

func (f *fakeDeviceRepository) UpdateConflictCounters(_ context.Context, deviceID string, newConflicts int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.devices[deviceID]
	if !ok {
		return store.ErrDeviceNotFound
	}

	d.PendingConflicts = newConflicts
	d.ConflictTotal += newConflicts

	return nil
}

func (f *fakeDeviceRepository) DecrementPendingConflicts(_ context.Context, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.devices[deviceID]
	if !ok {
		return store.ErrDeviceNotFound
	}
	if d.PendingConflicts > 0 {
		d.PendingConflicts--
	}

	return nil
}

type fakePendingRepository struct {
	mu      sync.Mutex
	changes map[int64]*models.PendingChange

	nextID int64
}

func newFakePendingRepository() *fakePendingRepository {
	return &fakePendingRepository{changes: make(map[int64]*models.PendingChange)}
}

func (f *fakePendingRepository) Queue(_ context.Context, pc models.PendingChange) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	pc.ID = f.nextID
	pc.ReceivedAt = time.Now().UTC()
	pc.Status = models.StatusConflict
	f.changes[pc.ID] = &pc

	return pc.ID, nil
}

func (f *fakePendingRepository) Get(_ context.Context, id int64) (models.PendingChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pc, ok := f.changes[id]
	if !ok {
		return models.PendingChange{}, store.ErrPendingChangeNotFound
	}

	return *pc, nil
}

func (f *fakePendingRepository) MarkSynced(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	pc, ok := f.changes[id]
	if !ok {
		return store.ErrPendingChangeNotFound
	}
	pc.Status = models.StatusSynced

	return nil
}

func (f *fakePendingRepository) ListConflicts(_ context.Context, deviceID string) ([]models.PendingChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.PendingChange
	for _, pc := range f.changes {
		if pc.Status != models.StatusConflict {
			continue
		}
		if deviceID != "" && pc.DeviceID != deviceID {
			continue
		}
		out = append(out, *pc)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

type memoryRecordStore struct {
	mu      sync.Mutex
	records map[string]models.Record
}

func newMemoryRecordStore() *memoryRecordStore {
	return &memoryRecordStore{records: make(map[string]models.Record)}
}

func (m *memoryRecordStore) Get(_ context.Context, collection, id string) (models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[recordKey(collection, id)]
	if !ok {
		return nil, store.ErrRecordNotFound
	}

	return r.Clone(), nil
}

func (m *memoryRecordStore) Create(_ context.Context, collection, id string, data models.Record) (models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[recordKey(collection, id)] = data.Clone()

	return data.Clone(), nil
}

func (m *memoryRecordStore) Update(_ context.Context, collection, id string, data models.Record) (models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := recordKey(collection, id)
	if _, ok := m.records[key]; !ok {
		return nil, store.ErrRecordNotFound
	}
	m.records[key] = data.Clone()

	return data.Clone(), nil
}

func (m *memoryRecordStore) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := recordKey(collection, id)
	if _, ok := m.records[key]; !ok {
		return store.ErrRecordNotFound
	}
	delete(m.records, key)

	return nil
}

// testEnv bundles fresh fakes and services for one test case.
type testEnv struct {
	versions *fakeVersionLedger
	devices  *fakeDeviceRepository
	pending  *fakePendingRepository
	records  *memoryRecordStore
	registry *store.AdapterRegistry

	deviceSvc   DeviceService
	syncSvc     SyncService
	conflictSvc ConflictService
}

func newTestEnv(collections ...string) *testEnv {
	if len(collections) == 0 {
		collections = []string{"incidents"}
	}

	env := &testEnv{
		versions: newFakeVersionLedger(),
		devices:  newFakeDeviceRepository(),
		pending:  newFakePendingRepository(),
		records:  newMemoryRecordStore(),
		registry: store.NewAdapterRegistry(),
	}
	for _, c := range collections {
		_ = env.registry.RegisterCollection(c, env.records)
	}

	log := logger.Nop()
	storages := &store.Storages{
		Versions: env.versions,
		Devices:  env.devices,
		Pending:  env.pending,
		Registry: env.registry,
	}

	env.deviceSvc = NewDeviceService(env.devices, log)
	env.syncSvc = NewSyncService(storages, env.deviceSvc, log)
	env.conflictSvc = NewConflictService(storages, log)

	return env
}

func (e *testEnv) register(ctx context.Context, deviceID string) models.DeviceSync {
	d, err := e.deviceSvc.Register(ctx, deviceID, models.DeviceInfo{
		Name:       "handheld " + deviceID,
		Type:       "handheld",
		AppVersion: "1.4.2",
	})
	if err != nil {
		panic(err)
	}

	return d
}
