// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package hotspot

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/tomtom215/geodiscovery/internal/logging"
	"github.com/tomtom215/geodiscovery/internal/models"
)

var snapshotKey = []byte("hotspot:snapshot")

// ErrNoCheckpoint is returned by Load when nothing has been saved yet.
var ErrNoCheckpoint = errors.New("no hotspot checkpoint")

// SnapshotStore persists the latest snapshot across restarts.
type SnapshotStore interface {
	Save(snap *models.HotspotSnapshot) error
	Load() (*models.HotspotSnapshot, error)
	Close() error
}

// BadgerCheckpoint stores the snapshot as zstd-compressed JSON in BadgerDB.
type BadgerCheckpoint struct {
	db  *badger.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// OpenCheckpoint opens (or creates) a checkpoint database at path.
// An empty path opens an in-memory database.
func OpenCheckpoint(path string) (*BadgerCheckpoint, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.SyncWrites = true

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint BadgerDB: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		_ = db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	logging.Info().Str("path", path).Bool("in_memory", path == "").Msg("Hotspot checkpoint opened")
	return &BadgerCheckpoint{db: db, enc: enc, dec: dec}, nil
}

// Save replaces the stored snapshot.
func (c *BadgerCheckpoint) Save(snap *models.HotspotSnapshot) error {
	if snap == nil {
		return errors.New("nil snapshot")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	compressed := c.enc.EncodeAll(data, make([]byte, 0, len(data)/2))

	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(snapshotKey, compressed))
	})
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// Load returns the stored snapshot or ErrNoCheckpoint.
func (c *BadgerCheckpoint) Load() (*models.HotspotSnapshot, error) {
	var snap models.HotspotSnapshot
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoCheckpoint
		}
		if err != nil {
			return fmt.Errorf("get checkpoint: %w", err)
		}
		return item.Value(func(val []byte) error {
			raw, err := c.dec.DecodeAll(val, nil)
			if err != nil {
				return fmt.Errorf("decompress checkpoint: %w", err)
			}
			return json.Unmarshal(raw, &snap)
		})
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Close releases the codec and the database.
func (c *BadgerCheckpoint) Close() error {
	c.dec.Close()
	if err := c.enc.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close zstd encoder")
	}
	return c.db.Close()
}
