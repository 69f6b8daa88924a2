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
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrSnapshotNotFound is returned when no snapshot exists at the
// requested sequence
var ErrSnapshotNotFound = errors.New("snapshot not found")

var (
	snapshotKeyPrefix = []byte("snapshot/")
	latestKey         = []byte("snapshot-latest")
)

// BlobStore persists platform state snapshots in badger, keyed by a
// monotonically increasing sequence number with a separate pointer to
// the latest sequence. With no data directory the store is in-memory,
// which is useful for testing.
type BlobStore struct {
	db      *badger.DB
	logger  *slog.Logger
	dataDir string
}

func newBlobStore(dataDir string, logger *slog.Logger) (*BlobStore, error) {
	var badgerOpts badger.Options
	if dataDir == "" {
		badgerOpts = badger.DefaultOptions("").
			WithLogger(newBadgerLogger(logger)).
			// The default INFO logging is a bit verbose
			WithLoggingLevel(badger.WARNING).
			WithInMemory(true)
	} else {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		blobDir := filepath.Join(dataDir, "blob")
		badgerOpts = badger.DefaultOptions(blobDir).
			WithLogger(newBadgerLogger(logger)).
			WithLoggingLevel(badger.WARNING)
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	return &BlobStore{
		db:      db,
		logger:  logger,
		dataDir: dataDir,
	}, nil
}

// DB returns the database handle
func (b *BlobStore) DB() *badger.DB {
	return b.db
}

// Close closes the underlying badger database
func (b *BlobStore) Close() error {
	return b.db.Close()
}

// PutSnapshot stores snapshot data under the given sequence and
// advances the latest pointer. Both writes commit in one transaction.
func (b *BlobStore) PutSnapshot(seq uint64, data []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(snapshotKey(seq), data); err != nil {
			return err
		}
		seqBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(seqBytes, seq)
		return txn.Set(latestKey, seqBytes)
	})
}

// GetSnapshot returns the snapshot data stored under the given sequence
func (b *BlobStore) GetSnapshot(seq uint64) ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(seq))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrSnapshotNotFound
			}
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// LatestSnapshot returns the most recently stored snapshot and its
// sequence
func (b *BlobStore) LatestSnapshot() (uint64, []byte, error) {
	var seq uint64
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(latestKey)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrSnapshotNotFound
			}
			return err
		}
		seqBytes, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if len(seqBytes) != 8 {
			return fmt.Errorf(
				"corrupt latest snapshot pointer: %d bytes",
				len(seqBytes),
			)
		}
		seq = binary.BigEndian.Uint64(seqBytes)
		snapItem, err := txn.Get(snapshotKey(seq))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrSnapshotNotFound
			}
			return err
		}
		data, err = snapItem.ValueCopy(nil)
		return err
	})
	if err != nil {
		return 0, nil, err
	}
	return seq, data, nil
}

func snapshotKey(seq uint64) []byte {
	key := make([]byte, len(snapshotKeyPrefix)+8)
	copy(key, snapshotKeyPrefix)
	binary.BigEndian.PutUint64(key[len(snapshotKeyPrefix):], seq)
	return key
}

// badgerLogger adapts slog to badger's logger interface
type badgerLogger struct {
	logger *slog.Logger
}

func newBadgerLogger(logger *slog.Logger) *badgerLogger {
	return &badgerLogger{logger: logger}
}

func (b *badgerLogger) Errorf(format string, args ...any) {
	b.logger.Error(
		fmt.Sprintf(format, args...),
		"component", "database",
	)
}

func (b *badgerLogger) Warningf(format string, args ...any) {
	b.logger.Warn(
		fmt.Sprintf(format, args...),
		"component", "database",
	)
}

func (b *badgerLogger) Infof(format string, args ...any) {
	b.logger.Info(
		fmt.Sprintf(format, args...),
		"component", "database",
	)
}

func (b *badgerLogger) Debugf(format string, args ...any) {
	b.logger.Debug(
		fmt.Sprintf(format, args...),
		"component", "database",
	)
}
