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
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/ruddypp/sofcialfi/database/models"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MetadataStore is the SQLite-backed fact journal. Every event the
// platform emits is appended as one row so an external indexer can
// reconstruct registry state by replay.
type MetadataStore struct {
	db      *gorm.DB
	logger  *slog.Logger
	dataDir string
}

func newMetadataStore(
	dataDir string,
	logger *slog.Logger,
) (*MetadataStore, error) {
	var metadataDb *gorm.DB
	var err error
	if dataDir == "" {
		// Use in-memory database when no data directory is specified, useful for testing
		// cache=shared allows multiple connections to share the same in-memory database
		metadataDb, err = gorm.Open(
			sqlite.Open("file::memory:?cache=shared"),
			&gorm.Config{
				Logger:                 gormlogger.Discard,
				SkipDefaultTransaction: true,
			},
		)
		if err != nil {
			return nil, err
		}
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
		metadataDbPath := filepath.Join(dataDir, "metadata.sqlite")
		// WAL journal mode, disable sync on write
		metadataConnOpts := "_pragma=journal_mode(WAL)&_pragma=sync(OFF)"
		metadataDb, err = gorm.Open(
			sqlite.Open(
				fmt.Sprintf("file:%s?%s", metadataDbPath, metadataConnOpts),
			),
			&gorm.Config{
				Logger:                 gormlogger.Discard,
				SkipDefaultTransaction: true,
			},
		)
		if err != nil {
			return nil, err
		}
	}
	store := &MetadataStore{
		db:      metadataDb,
		logger:  logger,
		dataDir: dataDir,
	}
	for _, model := range models.MigrateModels {
		store.logger.Debug(
			fmt.Sprintf("creating table: %#v", model),
			"component", "database",
		)
		if err := store.db.AutoMigrate(model); err != nil {
			return store, err
		}
	}
	return store, nil
}

// DB returns the database handle
func (m *MetadataStore) DB() *gorm.DB {
	return m.db
}

// Close closes the underlying database connection
func (m *MetadataStore) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AppendEvent adds one fact to the journal
func (m *MetadataStore) AppendEvent(
	eventType string,
	timestamp time.Time,
	payload []byte,
) error {
	evt := models.Event{
		Type:      eventType,
		Timestamp: timestamp,
		Payload:   payload,
	}
	if result := m.db.Create(&evt); result.Error != nil {
		return result.Error
	}
	return nil
}

// Events returns journal rows in append order, optionally filtered by
// type (empty string matches all)
func (m *MetadataStore) Events(eventType string) ([]models.Event, error) {
	var events []models.Event
	query := m.db.Order("id")
	if eventType != "" {
		query = query.Where("type = ?", eventType)
	}
	if result := query.Find(&events); result.Error != nil {
		return nil, result.Error
	}
	return events, nil
}

// EventCount returns the number of journal rows
func (m *MetadataStore) EventCount() (int64, error) {
	var count int64
	result := m.db.Model(&models.Event{}).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}
