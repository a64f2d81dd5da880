/*
Package deployments implements a persistent store of contract deployments
and named development node snapshots, kept per network in a BoltDB file.
*/
package deployments

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.etcd.io/bbolt"
)

var (
	deploymentsBucket = []byte("deployments")
	snapshotsBucket   = []byte("snapshots")
)

// ErrNotFound is returned for missing deployments and snapshots.
var ErrNotFound = errors.New("not found")

// Options configures Store.
type Options struct {
	FilePath string
	ReadOnly bool
}

// Deployment is a deployed contract record.
type Deployment struct {
	Name        string         `json:"name" yaml:"name"`
	Address     common.Address `json:"address" yaml:"address"`
	TxHash      common.Hash    `json:"transactionHash,omitempty" yaml:"transactionHash,omitempty"`
	BlockNumber uint64         `json:"blockNumber,omitempty" yaml:"blockNumber,omitempty"`
	Deployer    common.Address `json:"deployer,omitempty" yaml:"deployer,omitempty"`
	// ABI is the path of the contract artifact.
	ABI string `json:"abi,omitempty" yaml:"abi,omitempty"`
}

// Snapshot is a named evm_snapshot identifier.
type Snapshot struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	BlockNumber uint64 `json:"blockNumber"`
}

// Store is a BoltDB-backed deployments store.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the store file.
func Open(opts Options) (*Store, error) {
	var bopts = &bbolt.Options{Timeout: time.Second, ReadOnly: opts.ReadOnly}
	fileMode := os.FileMode(0600)
	if !opts.ReadOnly {
		err := os.MkdirAll(filepath.Dir(opts.FilePath), os.ModePerm)
		if err != nil {
			return nil, fmt.Errorf("could not create dir for BoltDB: %w", err)
		}
	}
	db, err := bbolt.Open(opts.FilePath, fileMode, bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB instance: %w", err)
	}
	if !opts.ReadOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			for _, b := range [][]byte{deploymentsBucket, snapshotsBucket} {
				if _, err := tx.CreateBucketIfNotExists(b); err != nil {
					return fmt.Errorf("could not create root bucket: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &Store{db: db}, nil
}

// Close releases all db resources.
func (s *Store) Close() error {
	return s.db.Close()
}

func put(tx *bbolt.Tx, root []byte, network string, key string, v any) error {
	if network == "" || key == "" {
		return errors.New("empty network or name")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b, err := tx.Bucket(root).CreateBucketIfNotExists([]byte(network))
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

func get(tx *bbolt.Tx, root []byte, network string, key string, v any) error {
	r := tx.Bucket(root)
	if r == nil {
		return ErrNotFound
	}
	b := r.Bucket([]byte(network))
	if b == nil {
		return ErrNotFound
	}
	data := b.Get([]byte(key))
	if data == nil {
		return ErrNotFound
	}
	return json.Unmarshal(data, v)
}

// Save stores the deployment replacing the one with the same name.
func (s *Store) Save(network string, d Deployment) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return put(tx, deploymentsBucket, network, d.Name, d)
	})
}

// Get returns the deployment with the given name.
func (s *Store) Get(network string, name string) (*Deployment, error) {
	d := new(Deployment)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return get(tx, deploymentsBucket, network, name, d)
	})
	if err != nil {
		return nil, fmt.Errorf("deployment %s on %s: %w", name, network, err)
	}
	return d, nil
}

// List returns all deployments of the network sorted by name.
func (s *Store) List(network string) ([]Deployment, error) {
	var res []Deployment
	err := s.db.View(func(tx *bbolt.Tx) error {
		r := tx.Bucket(deploymentsBucket)
		if r == nil {
			return nil
		}
		b := r.Bucket([]byte(network))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var d Deployment
			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}
			res = append(res, d)
			return nil
		})
	})
	return res, err
}

// Networks returns the names of networks having deployments.
func (s *Store) Networks() ([]string, error) {
	var res []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		r := tx.Bucket(deploymentsBucket)
		if r == nil {
			return nil
		}
		return r.ForEach(func(k, v []byte) error {
			// Nested buckets have nil values.
			if v == nil {
				res = append(res, string(k))
			}
			return nil
		})
	})
	return res, err
}

// Delete removes the deployment.
func (s *Store) Delete(network string, name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(deploymentsBucket).Bucket([]byte(network))
		if b == nil || b.Get([]byte(name)) == nil {
			return fmt.Errorf("deployment %s on %s: %w", name, network, ErrNotFound)
		}
		return b.Delete([]byte(name))
	})
}

// SaveSnapshot stores the named snapshot replacing the one with the same
// name.
func (s *Store) SaveSnapshot(network string, sn Snapshot) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return put(tx, snapshotsBucket, network, sn.Name, sn)
	})
}

// TakeSnapshot returns and removes the named snapshot, since a snapshot can
// only be reverted to once. Snapshots taken after it are removed too.
func (s *Store) TakeSnapshot(network string, name string) (*Snapshot, error) {
	sn := new(Snapshot)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := get(tx, snapshotsBucket, network, name, sn); err != nil {
			return err
		}
		b := tx.Bucket(snapshotsBucket).Bucket([]byte(network))
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var other Snapshot
			if err := json.Unmarshal(v, &other); err != nil {
				return err
			}
			if other.Name == name || other.BlockNumber > sn.BlockNumber {
				stale = append(stale, k)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot %s on %s: %w", name, network, err)
	}
	return sn, nil
}

// Snapshots returns the named snapshots of the network sorted by name.
func (s *Store) Snapshots(network string) ([]Snapshot, error) {
	var res []Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		r := tx.Bucket(snapshotsBucket)
		if r == nil {
			return nil
		}
		b := r.Bucket([]byte(network))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var sn Snapshot
			if err := json.Unmarshal(v, &sn); err != nil {
				return err
			}
			res = append(res, sn)
			return nil
		})
	})
	return res, err
}

// DropSnapshots removes all snapshots of the network, they're invalidated
// by chain reset.
func (s *Store) DropSnapshots(network string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		err := tx.Bucket(snapshotsBucket).DeleteBucket([]byte(network))
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}
