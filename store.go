package syscore

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	boltAllocSize = 8 * 1024 * 1024

	boltName = "checkpoint.db"
)

var (
	checkpointBucket = []byte("block-checkpoints")
)

// Checkpoint records the last block each producer was seen applying.
type Checkpoint struct {
	Producer  string `json:"producer"`
	BlockTime int64  `json:"blockTime"`
}

// Store is a bolt-backed journal of block checkpoints, kept outside the
// relational store so it survives a database rebuild.
type Store struct {
	BoltDb *bolt.DB
}

func NewStore(dirPath string) (*Store, error) {
	if err := os.MkdirAll(dirPath, os.ModePerm); err != nil {
		return nil, err
	}

	boltDB, err := bolt.Open(path.Join(dirPath, boltName), 0660, &bolt.Options{Timeout: 1 * time.Second, InitialMmapSize: 10e6})
	if err != nil {
		if err == bolt.ErrTimeout {
			return nil, errors.New("cannot obtain database lock, database may be in use by another process")
		}
		return nil, err
	}
	boltDB.AllocSize = boltAllocSize

	kv := &Store{
		BoltDb: boltDB,
	}

	// create bucket
	if err := kv.BoltDb.Update(func(tx *bolt.Tx) error {
		return createBuckets(tx, checkpointBucket)
	}); err != nil {
		return nil, err
	}

	return kv, nil
}

func createBuckets(tx *bolt.Tx, buckets ...[]byte) error {
	for _, bucket := range buckets {
		if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) SaveCheckpoint(producer string, blockTime int64) error {
	cp := Checkpoint{Producer: producer, BlockTime: blockTime}
	by, err := json.Marshal(&cp)
	if err != nil {
		return err
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(blockTime))
	return s.BoltDb.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(checkpointBucket).Put(key, by)
	})
}

// LastCheckpoint returns the most recent checkpoint, or nil when none exists.
func (s *Store) LastCheckpoint() (*Checkpoint, error) {
	var cp *Checkpoint
	err := s.BoltDb.View(func(tx *bolt.Tx) error {
		_, v := tx.Bucket(checkpointBucket).Cursor().Last()
		if v == nil {
			return nil
		}
		cp = &Checkpoint{}
		return json.Unmarshal(v, cp)
	})
	return cp, err
}

func (s *Store) Close() error {
	return s.BoltDb.Close()
}
