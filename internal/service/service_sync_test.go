package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkotelnikov/go-sync-ledger/internal/store"
	"github.com/dkotelnikov/go-sync-ledger/models"
)

func TestPull_DeliversChangesToOtherDevices(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv("incidents", "checkpoints")
	env.register(ctx, "guard-1")
	env.register(ctx, "guard-2")

	_, err := env.syncSvc.Push(ctx, "guard-1", []models.Change{
		{
			Collection: "incidents",
			RecordID:   "inc-1",
			Operation:  models.OperationCreate,
			Data:       models.Record{"severity": "low"},
		},
		{
			Collection: "checkpoints",
			RecordID:   "cp-1",
			Operation:  models.OperationCreate,
			Data:       models.Record{"name": "north gate"},
		},
	})
	require.NoError(t, err)

	pull, err := env.syncSvc.Pull(ctx, "guard-2", nil, nil)
	require.NoError(t, err)
	require.Len(t, pull.Changes, 2)
	assert.NotEmpty(t, pull.Token)
	assert.False(t, pull.ServerTime.IsZero())

	byID := make(map[string]models.PullChange, len(pull.Changes))
	for _, c := range pull.Changes {
		byID[c.RecordID] = c
	}

	inc := byID["inc-1"]
	assert.Equal(t, models.OperationCreate, inc.Operation)
	assert.Equal(t, int64(1), inc.Version)
	assert.Equal(t, "low", inc.Data["severity"])
}

func TestPull_CheckpointFiltersOldChanges(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.register(ctx, "guard-1")
	env.register(ctx, "guard-2")

	_, err := env.syncSvc.Push(ctx, "guard-1", []models.Change{{
		Collection: "incidents",
		RecordID:   "inc-old",
		Operation:  models.OperationCreate,
		Data:       models.Record{"n": 1},
	}})
	require.NoError(t, err)

	first, err := env.syncSvc.Pull(ctx, "guard-2", nil, nil)
	require.NoError(t, err)
	require.Len(t, first.Changes, 1)
	checkpoint := first.ServerTime

	_, err = env.syncSvc.Push(ctx, "guard-1", []models.Change{{
		Collection: "incidents",
		RecordID:   "inc-new",
		Operation:  models.OperationCreate,
		Data:       models.Record{"n": 2},
	}})
	require.NoError(t, err)

	second, err := env.syncSvc.Pull(ctx, "guard-2", &checkpoint, nil)
	require.NoError(t, err)
	require.Len(t, second.Changes, 1)
	assert.Equal(t, "inc-new", second.Changes[0].RecordID)
}

func TestPull_ChangesOrderedByModificationTime(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.register(ctx, "guard-1")

	for _, id := range []string{"a", "b", "c"} {
		_, err := env.syncSvc.Push(ctx, "guard-1", []models.Change{{
			Collection: "incidents",
			RecordID:   id,
			Operation:  models.OperationCreate,
			Data:       models.Record{"id": id},
		}})
		require.NoError(t, err)
	}

	pull, err := env.syncSvc.Pull(ctx, "guard-1", nil, nil)
	require.NoError(t, err)
	require.Len(t, pull.Changes, 3)

	for i := 1; i < len(pull.Changes); i++ {
		assert.False(t, pull.Changes[i].LastModified.Before(pull.Changes[i-1].LastModified))
	}
}

func TestPull_DeletionsArriveAsTombstones(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.register(ctx, "guard-1")
	env.register(ctx, "guard-2")

	_, err := env.syncSvc.Push(ctx, "guard-1", []models.Change{{
		Collection: "incidents",
		RecordID:   "inc-del",
		Operation:  models.OperationCreate,
		Data:       models.Record{"n": 1},
	}})
	require.NoError(t, err)

	_, err = env.syncSvc.Push(ctx, "guard-1", []models.Change{{
		Collection: "incidents",
		RecordID:   "inc-del",
		Operation:  models.OperationDelete,
		Version:    1,
	}})
	require.NoError(t, err)

	pull, err := env.syncSvc.Pull(ctx, "guard-2", nil, nil)
	require.NoError(t, err)
	require.Len(t, pull.Changes, 1)
	assert.Equal(t, models.OperationDelete, pull.Changes[0].Operation)
	assert.True(t, pull.Changes[0].Deleted)
	assert.Nil(t, pull.Changes[0].Data)
}

func TestPull_ConflictedRecordsAreHeldBack(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.register(ctx, "guard-1")
	env.register(ctx, "guard-2")

	_, err := env.syncSvc.Push(ctx, "guard-1", []models.Change{{
		Collection: "incidents",
		RecordID:   "inc-c",
		Operation:  models.OperationCreate,
		Data:       models.Record{"severity": "low"},
	}})
	require.NoError(t, err)
	_, err = env.syncSvc.Push(ctx, "guard-1", []models.Change{{
		Collection: "incidents",
		RecordID:   "inc-c",
		Operation:  models.OperationUpdate,
		Data:       models.Record{"severity": "high"},
		Version:    1,
	}})
	require.NoError(t, err)

	res, err := env.syncSvc.Push(ctx, "guard-2", []models.Change{{
		Collection: "incidents",
		RecordID:   "inc-c",
		Operation:  models.OperationUpdate,
		Data:       models.Record{"severity": "critical"},
		Version:    1,
	}})
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)

	pull, err := env.syncSvc.Pull(ctx, "guard-1", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, pull.Changes)
}

func TestPull_ValidatesRequestedCollections(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv("incidents")
	env.register(ctx, "guard-1")

	_, err := env.syncSvc.Pull(ctx, "guard-1", nil, []string{"visitors"})
	assert.ErrorIs(t, err, store.ErrUnknownCollection)
}

func TestPull_UnregisteredDevice(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	_, err := env.syncSvc.Pull(ctx, "stranger", nil, nil)
	assert.ErrorIs(t, err, ErrDeviceNotRegistered)
}

func TestSync_FullCycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.register(ctx, "guard-1")

	_, err := env.syncSvc.Push(ctx, "guard-1", []models.Change{{
		Collection: "incidents",
		RecordID:   "inc-srv",
		Operation:  models.OperationCreate,
		Data:       models.Record{"severity": "low"},
	}})
	require.NoError(t, err)

	info := models.DeviceInfo{Name: "handheld guard-2", Type: "handheld", AppVersion: "1.4.2"}
	result, err := env.syncSvc.Sync(ctx, "guard-2", info, nil, []models.Change{{
		Collection: "incidents",
		RecordID:   "inc-dev",
		Operation:  models.OperationCreate,
		Data:       models.Record{"severity": "medium"},
	}})
	require.NoError(t, err)

	// Registration happened inline.
	assert.Equal(t, "guard-2", result.Device.DeviceID)
	assert.NotEmpty(t, result.Device.Token)

	// The pull reflects the server state before the device's own push.
	require.Len(t, result.Pull.Changes, 1)
	assert.Equal(t, "inc-srv", result.Pull.Changes[0].RecordID)

	require.Len(t, result.Push.Synced, 1)
	assert.Equal(t, "inc-dev", result.Push.Synced[0].RecordID)
}

func TestSync_ReregistrationKeepsToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	first := env.register(ctx, "guard-1")
	require.NotEmpty(t, first.Token)

	time.Sleep(time.Millisecond)

	second, err := env.deviceSvc.Register(ctx, "guard-1", models.DeviceInfo{
		Name:       "handheld guard-1",
		Type:       "handheld",
		AppVersion: "1.5.0",
	})
	require.NoError(t, err)
	assert.Equal(t, first.Token, second.Token)
	assert.Equal(t, "1.5.0", second.AppVersion)
}

func TestRegister_RequiresDeviceID(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	_, err := env.deviceSvc.Register(ctx, "", models.DeviceInfo{Name: "x"})
	assert.ErrorIs(t, err, ErrNoDeviceIDProvided)
}
