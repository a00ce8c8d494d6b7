// Package bolt persists contacts and audit events in a local bbolt database file.
package bolt

import (
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	eventsBucket   = []byte("events")
	contactsBucket = []byte("contacts")
	bySocialBucket = []byte("contacts-by-social")
	byEmailBucket  = []byte("contacts-by-email")
)

// DB wraps a bbolt database holding the arbor buckets.
type DB struct {
	filename string
	db       *bolt.DB
}

// Open opens (or creates) the database file and its buckets.
func Open(filename string) (*DB, error) {
	db, err := bolt.Open(filename, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{eventsBucket, contactsBucket, bySocialBucket, byEmailBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &DB{filename: filename, db: db}, nil
}

// Close closes the database file.
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the database file name.
func (d *DB) Path() string {
	return d.filename
}

// itob encodes a sequence number as a big-endian key so cursor order is numeric.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
