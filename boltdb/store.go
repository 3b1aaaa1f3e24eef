// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package boltdb stores trips in a BoltDB file.
package boltdb

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pilosa/tripclean"
	"github.com/pkg/errors"
)

var (
	// idBucket maps surrogate ids to JSON encoded trips, so iterating it
	// visits trips in insertion order.
	idBucket = []byte("trips")
	// keyBucket maps trip ids to surrogate ids.
	keyBucket = []byte("tripIDs")
)

var (
	_ tripclean.TripStore = &Store{}
	_ tripclean.Scanner   = &Store{}
)

// Store is a tripclean.TripStore in a BoltDB file.
type Store struct {
	Db *bolt.DB
}

// Open opens (creating if needed) the BoltDB file at filename.
func Open(filename string) (*Store, error) {
	db, err := bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", filename)
	}
	return &Store{Db: db}, nil
}

// EnsureSchema implements tripclean.TripStore.
func (s *Store) EnsureSchema() error {
	err := s.Db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(idBucket); err != nil {
			return errors.Wrap(err, "creating trips bucket")
		}
		if _, err := tx.CreateBucketIfNotExists(keyBucket); err != nil {
			return errors.Wrap(err, "creating tripIDs bucket")
		}
		return nil
	})
	return errors.Wrap(err, "ensuring bucket existence")
}

// Close syncs and closes the db file.
func (s *Store) Close() error {
	err := s.Db.Sync()
	if err != nil {
		return errors.Wrap(err, "syncing db")
	}
	return s.Db.Close()
}

// Begin implements tripclean.TripStore. Bolt allows a single writable
// transaction at a time, which makes the duplicate check and insert of a
// record atomic.
func (s *Store) Begin() (tripclean.TripTx, error) {
	tx, err := s.Db.Begin(true)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	return &Tx{tx: tx}, nil
}

// Scan implements tripclean.Scanner.
func (s *Store) Scan(fn func(t *tripclean.Trip) error) error {
	return s.Db.View(func(tx *bolt.Tx) error {
		ib := tx.Bucket(idBucket)
		if ib == nil {
			return errors.New("trips bucket doesn't exist")
		}
		c := ib.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			t := &tripclean.Trip{}
			if err := json.Unmarshal(v, t); err != nil {
				return errors.Wrapf(err, "decoding trip %d", binary.BigEndian.Uint64(k))
			}
			if err := fn(t); err != nil {
				return err
			}
		}
		return nil
	})
}

// Tx is a tripclean.TripTx wrapping a writable bolt transaction.
type Tx struct {
	tx *bolt.Tx
}

func (t *Tx) buckets() (ib, kb *bolt.Bucket, err error) {
	ib, kb = t.tx.Bucket(idBucket), t.tx.Bucket(keyBucket)
	if ib == nil || kb == nil {
		return nil, nil, errors.New("trips buckets don't exist")
	}
	return ib, kb, nil
}

// Exists implements tripclean.TripTx.
func (t *Tx) Exists(tripID string) (bool, error) {
	_, kb, err := t.buckets()
	if err != nil {
		return false, err
	}
	return kb.Get([]byte(tripID)) != nil, nil
}

// Insert implements tripclean.TripTx.
func (t *Tx) Insert(trip *tripclean.Trip) error {
	ib, kb, err := t.buckets()
	if err != nil {
		return err
	}
	key := []byte(trip.TripID)
	if kb.Get(key) != nil {
		return errors.Wrapf(tripclean.ErrDuplicateTrip, "inserting %s", trip.TripID)
	}
	id, err := ib.NextSequence()
	if err != nil {
		return errors.Wrap(err, "getting next id")
	}
	trip.ID = int64(id)
	val, err := json.Marshal(trip)
	if err != nil {
		return errors.Wrap(err, "encoding trip")
	}
	idBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idBytes, id)
	if err := ib.Put(idBytes, val); err != nil {
		return errors.Wrap(err, "inserting into trips bucket")
	}
	if err := kb.Put(key, idBytes); err != nil {
		return errors.Wrap(err, "inserting into tripIDs bucket")
	}
	return nil
}

// Commit implements tripclean.TripTx.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback implements tripclean.TripTx.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}
