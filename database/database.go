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

// Package database provides the platform's persistence: a badger blob
// store for full-state snapshots and a SQLite metadata store for the
// append-only fact journal. Both run in-memory when no data directory
// is configured.
package database

import (
	"errors"
	"io"
	"log/slog"
)

type Config struct {
	Logger  *slog.Logger
	DataDir string
}

type Database struct {
	logger   *slog.Logger
	blob     *BlobStore
	metadata *MetadataStore
	dataDir  string
}

func New(config *Config) (*Database, error) {
	logger := config.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	blob, err := newBlobStore(config.DataDir, logger)
	if err != nil {
		return nil, err
	}
	metadata, err := newMetadataStore(config.DataDir, logger)
	if err != nil {
		// Don't leave the blob store open on partial failure
		blobErr := blob.Close()
		return nil, errors.Join(err, blobErr)
	}
	return &Database{
		logger:   logger,
		blob:     blob,
		metadata: metadata,
		dataDir:  config.DataDir,
	}, nil
}

// Blob returns the underlying blob store instance
func (d *Database) Blob() *BlobStore {
	return d.blob
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() *MetadataStore {
	return d.metadata
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	metadataErr := d.metadata.Close()
	err = errors.Join(err, metadataErr)
	blobErr := d.blob.Close()
	err = errors.Join(err, blobErr)
	return err
}
