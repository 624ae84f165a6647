package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/cuemby/netemu/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketExecutions = []byte("executions")
	bucketCluster    = []byte("cluster")

	keyClusterConfig = []byte("config")
)

// BoltStore implements Store interface using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "netemu.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketExecutions, bucketCluster} {
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

// Ping checks that the database is readable
func (s *BoltStore) Ping() error {
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketExecutions) == nil {
			return fmt.Errorf("bucket %s missing", bucketExecutions)
		}
		return nil
	})
}

// Execution operations
func (s *BoltStore) SaveExecution(exec *types.Execution) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketExecutions)
		data, err := json.Marshal(exec)
		if err != nil {
			return err
		}
		return b.Put([]byte(exec.ID().Key()), data)
	})
}

func (s *BoltStore) GetExecution(id types.ExecutionID) (*types.Execution, error) {
	var exec types.Execution
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketExecutions)
		data := b.Get([]byte(id.Key()))
		if data == nil {
			return fmt.Errorf("execution %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &exec)
	})
	if err != nil {
		return nil, err
	}
	return &exec, nil
}

func (s *BoltStore) ListExecutions() ([]*types.Execution, error) {
	var execs []*types.Execution
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketExecutions)
		return b.ForEach(func(k, v []byte) error {
			var exec types.Execution
			if err := json.Unmarshal(v, &exec); err != nil {
				return err
			}
			execs = append(execs, &exec)
			return nil
		})
	})
	return execs, err
}

func (s *BoltStore) ListExecutionsByEmulation(emulation string) ([]*types.Execution, error) {
	execs, err := s.ListExecutions()
	if err != nil {
		return nil, err
	}
	return filterByEmulation(execs, emulation), nil
}

func (s *BoltStore) DeleteExecution(id types.ExecutionID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketExecutions)
		return b.Delete([]byte(id.Key()))
	})
}

// Cluster operations
func (s *BoltStore) SaveClusterConfig(cfg *types.ClusterConfig) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCluster)
		data, err := json.Marshal(cfg)
		if err != nil {
			return err
		}
		return b.Put(keyClusterConfig, data)
	})
}

func (s *BoltStore) GetClusterConfig() (*types.ClusterConfig, error) {
	var cfg types.ClusterConfig
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketCluster).Get(keyClusterConfig)
		if data == nil {
			return fmt.Errorf("cluster config: %w", ErrNotFound)
		}
		return json.Unmarshal(data, &cfg)
	})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
