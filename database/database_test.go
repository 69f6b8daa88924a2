// Copyright 2025 The SofcialFi Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDatabase creates an in-memory database
func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := New(&Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("database close: %v", err)
		}
	})
	return db
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	data := []byte(`{"state":"v1"}`)
	require.NoError(t, db.Blob().PutSnapshot(1, data))

	got, err := db.Blob().GetSnapshot(1)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestSnapshotNotFound(t *testing.T) {
	db := newTestDatabase(t)
	_, err := db.Blob().GetSnapshot(42)
	require.ErrorIs(t, err, ErrSnapshotNotFound)
	_, _, err = db.Blob().LatestSnapshot()
	require.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestLatestSnapshot(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.Blob().PutSnapshot(1, []byte("one")))
	require.NoError(t, db.Blob().PutSnapshot(2, []byte("two")))
	require.NoError(t, db.Blob().PutSnapshot(3, []byte("three")))

	seq, data, err := db.Blob().LatestSnapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), seq)
	assert.Equal(t, []byte("three"), data)

	// Earlier snapshots remain retrievable
	data, err = db.Blob().GetSnapshot(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)
}

func TestEventJournal(t *testing.T) {
	db := newTestDatabase(t)
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(
		t,
		db.Metadata().AppendEvent("petition.created", ts, []byte(`{"id":0}`)),
	)
	require.NoError(
		t,
		db.Metadata().AppendEvent("petition.signed", ts, []byte(`{"id":0}`)),
	)
	require.NoError(
		t,
		db.Metadata().AppendEvent("petition.signed", ts, []byte(`{"id":0}`)),
	)

	count, err := db.Metadata().EventCount()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	events, err := db.Metadata().Events("petition.signed")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "petition.signed", events[0].Type)
	// Append order is preserved
	assert.Less(t, events[0].ID, events[1].ID)

	all, err := db.Metadata().Events("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFileBackedPersistence(t *testing.T) {
	dataDir := t.TempDir()

	db, err := New(&Config{DataDir: dataDir})
	require.NoError(t, err)
	require.NoError(t, db.Blob().PutSnapshot(7, []byte("persisted")))
	require.NoError(
		t,
		db.Metadata().AppendEvent(
			"credit.minted",
			time.Now(),
			[]byte(`{"amount":"1"}`),
		),
	)
	require.NoError(t, db.Close())

	reopened, err := New(&Config{DataDir: dataDir})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, reopened.Close())
	}()

	seq, data, err := reopened.Blob().LatestSnapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), seq)
	assert.Equal(t, []byte("persisted"), data)

	count, err := reopened.Metadata().EventCount()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
