// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dmitry Kotelnikov

package store

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_buildChangesSinceQuery_WithoutCheckpoint(t *testing.T) {
	query, args, err := buildChangesSinceQuery(ChangesSinceRequest{
		Collections: []string{"incidents", "patrols"},
	})
	require.NoError(t, err)

	// args checks: conflict filter first, then the collection set
	require.Len(t, args, 3)
	require.Equal(t, "conflict", args[0])
	require.Equal(t, "incidents", args[1])
	require.Equal(t, "patrols", args[2])

	q := strings.ToLower(query)

	require.Contains(t, q, "select")
	require.Contains(t, q, "from sync_versions")
	require.Contains(t, q, "status <>")
	require.Contains(t, q, "collection in")
	require.Contains(t, q, "order by last_modified asc, id asc")
	require.NotContains(t, q, "last_modified >")

	// placeholder format should be $1 (Postgres)
	require.Contains(t, query, "$1")

	// pull payload column subset
	for _, c := range []string{"record_id", "version", "fingerprint", "deleted", "last_modified_by"} {
		require.Contains(t, q, c)
	}
}

func Test_buildChangesSinceQuery_WithCheckpoint(t *testing.T) {
	since := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	query, args, err := buildChangesSinceQuery(ChangesSinceRequest{
		Collections: []string{"incidents"},
		Since:       &since,
	})
	require.NoError(t, err)

	require.Len(t, args, 3)
	require.Equal(t, "conflict", args[0])
	require.Equal(t, "incidents", args[1])
	require.Equal(t, since, args[2])

	require.Contains(t, strings.ToLower(query), "last_modified >")
	require.Contains(t, query, "$3")
}

func Test_buildListConflictsQuery_AllDevices(t *testing.T) {
	query, args, err := buildListConflictsQuery("")
	require.NoError(t, err)

	require.Len(t, args, 1)
	require.Equal(t, "conflict", args[0])

	q := strings.ToLower(query)

	require.Contains(t, q, "from pending_changes")
	require.Contains(t, q, "status =")
	require.Contains(t, q, "order by received_at asc, id asc")
	require.NotContains(t, q, "device_id =")

	for _, c := range []string{"operation", "payload", "submitted_version", "submitted_at"} {
		require.Contains(t, q, c)
	}
}

func Test_buildListConflictsQuery_SingleDevice(t *testing.T) {
	query, args, err := buildListConflictsQuery("guard-2")
	require.NoError(t, err)

	require.Len(t, args, 2)
	require.Equal(t, "conflict", args[0])
	require.Equal(t, "guard-2", args[1])

	require.Contains(t, strings.ToLower(query), "device_id =")
	require.Contains(t, query, "$2")
}

func Test_bumpVersionRecord_ConditionsRunOnLiveRow(t *testing.T) {
	q := strings.ToLower(bumpVersionRecord)

	// The quals and the increment must reference the updated relation, not
	// the materialized CTE: a qual re-check after a concurrent commit then
	// sees the current row and the loser fails the version test instead of
	// applying a stale increment.
	require.Contains(t, q, "= v.version + 1")
	require.Contains(t, q, "v.fingerprint <> $3")
	require.Contains(t, q, "v.version <= $6")
	require.NotContains(t, q, "t.version + 1")
	require.NotContains(t, q, "t.fingerprint <>")
	require.NotContains(t, q, "t.version <=")

	// An open conflict survives a clean bump; only resolution clears it.
	require.Contains(t, q, "case when v.status = 'conflict' then v.status else 'synced' end")
}
