package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Kush-Singh-26/imgcorpus/builder/models"
)

// SnapshotFile is the database file name inside the cache directory
const SnapshotFile = "corpus.db"

// ErrNoSnapshot is returned by Load when nothing has been saved yet
var ErrNoSnapshot = errors.New("no corpus snapshot")

// SkippedLabel records a label left out of a corpus and why
type SkippedLabel struct {
	Label  models.Label `msgpack:"label"`
	Reason string       `msgpack:"reason"`
	Detail string       `msgpack:"detail,omitempty"`
}

// Snapshot is the persisted form of a built corpus
type Snapshot struct {
	Fingerprint string
	CreatedAt   time.Time
	Labels      []models.Label
	Items       map[string][]models.Label
	Skipped     []SkippedLabel
}

// SnapshotStore persists corpus snapshots in BoltDB
type SnapshotStore struct {
	db   *bolt.DB
	path string
}

// OpenSnapshotStore opens or creates the snapshot database in dir
func OpenSnapshotStore(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	opts := &bolt.Options{
		Timeout:         10 * time.Second,
		FreelistType:    bolt.FreelistArrayType,
		PageSize:        16384,
		InitialMmapSize: 10 * 1024 * 1024,
	}

	path := filepath.Join(dir, SnapshotFile)
	db, err := bolt.Open(path, 0644, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}

	s := &SnapshotStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Path returns the database file path
func (s *SnapshotStore) Path() string {
	return s.path
}

// Close closes the database
func (s *SnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// initSchema creates all buckets if they don't exist
func (s *SnapshotStore) initSchema() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets() {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket([]byte(BucketMeta))
		if meta.Get([]byte(KeySchemaVersion)) == nil {
			v := make([]byte, 4)
			binary.BigEndian.PutUint32(v, SchemaVersion)
			if err := meta.Put([]byte(KeySchemaVersion), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Fingerprint returns the fingerprint of the stored snapshot, or "" if none
func (s *SnapshotStore) Fingerprint() (string, error) {
	var fp string
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(BucketMeta)).Get([]byte(KeyFingerprint)); v != nil {
			fp = string(v)
		}
		return nil
	})
	return fp, err
}

// Save replaces the stored snapshot in a single transaction
func (s *SnapshotStore) Save(snap *Snapshot) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{BucketLabels, BucketItems, BucketSkipped} {
			if tx.Bucket([]byte(name)) != nil {
				if err := tx.DeleteBucket([]byte(name)); err != nil {
					return fmt.Errorf("failed to reset bucket %s: %w", name, err)
				}
			}
			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}

		labels := tx.Bucket([]byte(BucketLabels))
		for _, l := range snap.Labels {
			if err := labels.Put([]byte(l), []byte{}); err != nil {
				return err
			}
		}

		items := tx.Bucket([]byte(BucketItems))
		for item, ls := range snap.Items {
			data, err := Encode(ls)
			if err != nil {
				return fmt.Errorf("failed to encode labels of %s: %w", item, err)
			}
			if err := items.Put([]byte(item), data); err != nil {
				return err
			}
		}

		skipped := tx.Bucket([]byte(BucketSkipped))
		for i := range snap.Skipped {
			data, err := Encode(&snap.Skipped[i])
			if err != nil {
				return err
			}
			if err := skipped.Put([]byte(snap.Skipped[i].Label), data); err != nil {
				return err
			}
		}

		meta := tx.Bucket([]byte(BucketMeta))
		created, err := snap.CreatedAt.UTC().MarshalBinary()
		if err != nil {
			return err
		}
		if err := meta.Put([]byte(KeyCreatedAt), created); err != nil {
			return err
		}
		return meta.Put([]byte(KeyFingerprint), []byte(snap.Fingerprint))
	})
}

// Load reads the stored snapshot. Labels come back in canonical order.
func (s *SnapshotStore) Load() (*Snapshot, error) {
	snap := &Snapshot{Items: make(map[string][]models.Label)}
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(BucketMeta))
		fp := meta.Get([]byte(KeyFingerprint))
		if fp == nil {
			return ErrNoSnapshot
		}
		snap.Fingerprint = string(fp)
		if created := meta.Get([]byte(KeyCreatedAt)); created != nil {
			if err := snap.CreatedAt.UnmarshalBinary(created); err != nil {
				return err
			}
		}

		// bolt iterates keys in byte order, which is the canonical label order
		if err := tx.Bucket([]byte(BucketLabels)).ForEach(func(k, _ []byte) error {
			snap.Labels = append(snap.Labels, models.Label(k))
			return nil
		}); err != nil {
			return err
		}

		if err := tx.Bucket([]byte(BucketItems)).ForEach(func(k, v []byte) error {
			var ls []models.Label
			if err := Decode(v, &ls); err != nil {
				return fmt.Errorf("failed to decode labels of %s: %w", k, err)
			}
			snap.Items[string(k)] = ls
			return nil
		}); err != nil {
			return err
		}

		return tx.Bucket([]byte(BucketSkipped)).ForEach(func(_, v []byte) error {
			var sk SkippedLabel
			if err := Decode(v, &sk); err != nil {
				return err
			}
			snap.Skipped = append(snap.Skipped, sk)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Lookup returns the labels stored for a single item, or nil if absent
func (s *SnapshotStore) Lookup(item string) ([]models.Label, error) {
	var ls []models.Label
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(BucketItems)).Get([]byte(item))
		if data == nil {
			return nil
		}
		if err := Decode(data, &ls); err != nil {
			return fmt.Errorf("failed to decode labels of %s: %w", item, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ls, nil
}
