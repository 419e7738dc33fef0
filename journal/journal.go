// Package journal implements a service persisting access records for
// later inspection. It is optional: with no journal configured the
// server keeps no state between requests.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/boltdb/bolt"
	"github.com/charmbracelet/log"
)

const requestsBucket = "requests"

// Record is one served request as stored in the journal.
type Record struct {
	Time       time.Time
	RemoteAddr string
	Method     string
	Path       string
	Status     int
	Bytes      int64
}

// Service is a service that interacts with the journal database.
type Service struct {
	db     *bolt.DB
	logger *log.Logger
}

// Connect opens the journal database file, creating it if needed.
func (s *Service) Connect(dbName string, mode os.FileMode, options *bolt.Options) (err error) {
	s.db, err = bolt.Open(dbName, mode, options)
	return
}

// Close closes the database connection.
func (s *Service) Close() (err error) {
	err = s.db.Close()
	return
}

// SetLogger sets the logger.
func (s *Service) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// Insert appends a new record to the journal.
func (s *Service) Insert(r Record) (err error) {
	value, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(requestsBucket))
		if err != nil {
			return fmt.Errorf("create bucket %q: %w", requestsBucket, err)
		}
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		if err := b.Put(itob(seq), value); err != nil {
			return fmt.Errorf("put record: %w", err)
		}
		return nil
	})
	return
}

// Recent returns up to n records, newest first. An empty journal yields
// an empty slice and no error.
func (s *Service) Recent(n int) (records []Record, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(requestsBucket))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil && len(records) < n; k, v = c.Prev() {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("unmarshal record: %w", err)
			}
			records = append(records, r)
		}
		return nil
	})
	return
}

// Len returns the number of records in the journal.
func (s *Service) Len() (n int, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(requestsBucket))
		if b == nil {
			return nil
		}
		n = b.Stats().KeyN
		return nil
	})
	return
}

// itob encodes a bolt sequence number as a sortable big-endian key.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
