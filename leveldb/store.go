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

// Package leveldb stores trips in a LevelDB directory.
package leveldb

import (
	"encoding/binary"
	"encoding/json"

	"github.com/pilosa/tripclean"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Key layout:
//
//	t/<trip_id>  -> big endian surrogate id
//	i/<id>       -> JSON encoded trip
//	m/seq        -> last assigned surrogate id
var (
	keyPrefix = []byte("t/")
	idPrefix  = []byte("i/")
	seqKey    = []byte("m/seq")
)

var (
	_ tripclean.TripStore = &Store{}
	_ tripclean.Scanner   = &Store{}
)

// Store is a tripclean.TripStore backed by leveldb.
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if needed) the leveldb directory at dirname.
func Open(dirname string) (*Store, error) {
	db, err := leveldb.OpenFile(dirname, &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb at %v", dirname)
	}
	return &Store{db: db}, nil
}

// EnsureSchema implements tripclean.TripStore. It initializes the id
// counter the first time a directory is used.
func (s *Store) EnsureSchema() error {
	ok, err := s.db.Has(seqKey, nil)
	if err != nil {
		return errors.Wrap(err, "checking id counter")
	}
	if ok {
		return nil
	}
	return errors.Wrap(s.db.Put(seqKey, encodeID(0), &opt.WriteOptions{Sync: true}), "initializing id counter")
}

// Close implements tripclean.TripStore.
func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "closing leveldb")
}

// Begin implements tripclean.TripStore. Leveldb blocks other writes while a
// transaction is open, which makes each record's check and insert atomic.
func (s *Store) Begin() (tripclean.TripTx, error) {
	tx, err := s.db.OpenTransaction()
	if err != nil {
		return nil, errors.Wrap(err, "opening transaction")
	}
	return &Tx{tx: tx}, nil
}

// Scan implements tripclean.Scanner, visiting trips in insertion order.
func (s *Store) Scan(fn func(t *tripclean.Trip) error) error {
	iter := s.db.NewIterator(util.BytesPrefix(idPrefix), nil)
	defer iter.Release()
	for iter.Next() {
		t := &tripclean.Trip{}
		if err := json.Unmarshal(iter.Value(), t); err != nil {
			return errors.Wrapf(err, "decoding %s", iter.Key())
		}
		if err := fn(t); err != nil {
			return err
		}
	}
	return errors.Wrap(iter.Error(), "iterating trips")
}

// Tx is a tripclean.TripTx wrapping a leveldb transaction.
type Tx struct {
	tx *leveldb.Transaction
}

func tripKey(tripID string) []byte {
	return append(append([]byte{}, keyPrefix...), tripID...)
}

func encodeID(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

// Exists implements tripclean.TripTx.
func (t *Tx) Exists(tripID string) (bool, error) {
	ok, err := t.tx.Has(tripKey(tripID), nil)
	return ok, errors.Wrap(err, "looking up trip id")
}

// Insert implements tripclean.TripTx.
func (t *Tx) Insert(trip *tripclean.Trip) error {
	key := tripKey(trip.TripID)
	ok, err := t.tx.Has(key, nil)
	if err != nil {
		return errors.Wrap(err, "looking up trip id")
	}
	if ok {
		return errors.Wrapf(tripclean.ErrDuplicateTrip, "inserting %s", trip.TripID)
	}
	seq, err := t.tx.Get(seqKey, nil)
	if err != nil {
		return errors.Wrap(err, "reading id counter")
	}
	if len(seq) != 8 {
		return errors.Errorf("malformed id counter %x", seq)
	}
	id := binary.BigEndian.Uint64(seq) + 1
	trip.ID = int64(id)
	val, err := json.Marshal(trip)
	if err != nil {
		return errors.Wrap(err, "encoding trip")
	}
	idBytes := encodeID(id)
	batch := new(leveldb.Batch)
	batch.Put(append(append([]byte{}, idPrefix...), idBytes...), val)
	batch.Put(key, idBytes)
	batch.Put(seqKey, idBytes)
	return errors.Wrap(t.tx.Write(batch, nil), "writing trip")
}

// Commit implements tripclean.TripTx. A transaction that fails to commit
// is discarded, so the database is not left locked.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		t.tx.Discard()
		return errors.Wrap(err, "committing")
	}
	return nil
}

// Rollback implements tripclean.TripTx.
func (t *Tx) Rollback() error {
	t.tx.Discard()
	return nil
}
