package database

import (
	"context"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/go-fda/fda/internal/database"
	"github.com/go-fda/fda/internal/dataset/model"
)

const (
	datasetKeys = "dataset:keys:"
	prefix      = "dataset:"
)

var ErrNotFound = fmt.Errorf("dataset not found")

type FilterFn func(dataset model.Dataset) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

// Keys returns the stored dataset names.
func (db *DB) Keys() ([]string, error) {
	var names []string
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(datasetKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			names = append(names, string(k))
		}
		return nil
	})

	return names, err
}

func (db *DB) Store(_ context.Context, dataset model.Dataset) error {
	bytes, err := json.Marshal(dataset)
	if err != nil {
		return err
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(prefix + dataset.Name))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if err := b.Put([]byte(dataset.ID.String()), bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		keys, err := tx.CreateBucketIfNotExists([]byte(datasetKeys))
		if err != nil {
			return fmt.Errorf("unable create dataset keys bucket: %w", err)
		}
		if err := keys.Put([]byte(dataset.Name), []byte(dataset.ID.String())); err != nil {
			return fmt.Errorf("unable put to dataset keys bucket: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

// Find returns the dataset stored under name.
func (db *DB) Find(_ context.Context, name string) (model.Dataset, error) {
	var dataset model.Dataset
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		keys := tx.Bucket([]byte(datasetKeys))
		if keys == nil {
			return ErrNotFound
		}
		id := keys.Get([]byte(name))
		if id == nil {
			return ErrNotFound
		}
		b := tx.Bucket([]byte(prefix + name))
		if b == nil {
			return ErrNotFound
		}
		v := b.Get(id)
		if v == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(v, &dataset); err != nil {
			return fmt.Errorf("json unmarshal error, %q", err)
		}
		return nil
	}); err != nil {
		if err == ErrNotFound {
			return model.Dataset{}, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return model.Dataset{}, fmt.Errorf("view transaction error: %v", err)
	}

	return dataset, nil
}

func (db *DB) Delete(_ context.Context, name string) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		if b := tx.Bucket([]byte(prefix + name)); b != nil {
			if err := tx.DeleteBucket([]byte(prefix + name)); err != nil {
				return fmt.Errorf("unable delete bucket: %w", err)
			}
		}
		if keys := tx.Bucket([]byte(datasetKeys)); keys != nil {
			if err := keys.Delete([]byte(name)); err != nil {
				return fmt.Errorf("unable delete key: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) FindAll(ctx context.Context, filter FilterFn) ([]model.Dataset, error) {
	names, err := db.Keys()
	if err != nil {
		return nil, err
	}

	var datasets []model.Dataset
	for _, name := range names {
		dataset, err := db.Find(ctx, name)
		if err != nil {
			return nil, err
		}
		if filter == nil || filter(dataset) {
			datasets = append(datasets, dataset)
		}
	}

	return datasets, nil
}
