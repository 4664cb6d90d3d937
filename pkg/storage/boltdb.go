package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/holdfast-io/holdfast/pkg/types"
)

var (
	// Bucket names
	bucketPeers = []byte("peers")
	bucketAudit = []byte("audit")
)

// BoltStore implements Store interface using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "holdfast.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketPeers, bucketAudit} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// SavePeer upserts a peer record
func (s *BoltStore) SavePeer(peer *types.PeerInfo) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPeers)
		data, err := json.Marshal(peer)
		if err != nil {
			return err
		}
		return b.Put([]byte(peer.ID), data)
	})
}

// ListPeers returns all persisted peer records
func (s *BoltStore) ListPeers() ([]*types.PeerInfo, error) {
	var peers []*types.PeerInfo
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPeers)
		return b.ForEach(func(k, v []byte) error {
			var peer types.PeerInfo
			if err := json.Unmarshal(v, &peer); err != nil {
				return err
			}
			peers = append(peers, &peer)
			return nil
		})
	})
	return peers, err
}

// DeletePeer removes a peer record
func (s *BoltStore) DeletePeer(id types.PeerID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPeers)
		return b.Delete([]byte(id))
	})
}

// AppendAudit appends a record to the audit trail. Keys are
// timestamp-prefixed so bucket order is chronological.
func (s *BoltStore) AppendAudit(record *types.AuditRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAudit)
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		key := fmt.Sprintf("%020d-%s", record.Timestamp.UnixNano(), record.ID)
		return b.Put([]byte(key), data)
	})
}

// ListAudit returns the most recent audit records, newest first. A limit
// of 0 or less returns everything.
func (s *BoltStore) ListAudit(limit int) ([]*types.AuditRecord, error) {
	var records []*types.AuditRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketAudit).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var record types.AuditRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			records = append(records, &record)
			if limit > 0 && len(records) >= limit {
				return nil
			}
		}
		return nil
	})
	return records, err
}
