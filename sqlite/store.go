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

// Package sqlite stores trips in a SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pilosa/tripclean"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS trips (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	trip_id TEXT UNIQUE NOT NULL,
	vendor_id INTEGER NOT NULL,
	pickup_datetime TEXT NOT NULL,
	dropoff_datetime TEXT NOT NULL,
	passenger_count INTEGER NOT NULL,
	pickup_longitude REAL NOT NULL,
	pickup_latitude REAL NOT NULL,
	dropoff_longitude REAL NOT NULL,
	dropoff_latitude REAL NOT NULL,
	store_and_fwd_flag TEXT NOT NULL,
	trip_duration INTEGER NOT NULL,
	trip_speed REAL NOT NULL,
	distance REAL NOT NULL,
	pickup_hour INTEGER NOT NULL,
	day_of_week TEXT NOT NULL
);
`

const columns = `trip_id, vendor_id, pickup_datetime, dropoff_datetime, passenger_count,
	pickup_longitude, pickup_latitude, dropoff_longitude, dropoff_latitude,
	store_and_fwd_flag, trip_duration, trip_speed, distance, pickup_hour, day_of_week`

// GroupColumns are the columns GroupCount accepts.
var GroupColumns = map[string]struct{}{
	"day_of_week":        {},
	"pickup_hour":        {},
	"vendor_id":          {},
	"passenger_count":    {},
	"store_and_fwd_flag": {},
}

var (
	_ tripclean.TripStore = &Store{}
	_ tripclean.Grouper   = &Store{}
	_ tripclean.Scanner   = &Store{}
)

// Store is a tripclean.TripStore backed by the trips table of a SQLite
// database file.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path. Transactions take
// the database write lock when they begin, so the duplicate check and the
// insert of a record are atomic even with other writers on the same file.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_txlock=immediate&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", path)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "connecting to '%v'", path)
	}
	return &Store{db: db, path: path}, nil
}

// EnsureSchema implements tripclean.TripStore.
func (s *Store) EnsureSchema() error {
	_, err := s.db.Exec(schema)
	return errors.Wrap(err, "creating trips table")
}

// Close implements tripclean.TripStore.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin implements tripclean.TripStore.
func (s *Store) Begin() (tripclean.TripTx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	return &Tx{tx: tx}, nil
}

// Count returns the number of stored trips.
func (s *Store) Count() (n int64, err error) {
	err = s.db.QueryRow(`SELECT COUNT(*) FROM trips`).Scan(&n)
	return n, errors.Wrap(err, "counting trips")
}

// GroupCount implements tripclean.Grouper with a GROUP BY query.
func (s *Store) GroupCount(column string) ([]tripclean.Group, error) {
	if _, ok := GroupColumns[column]; !ok {
		return nil, errors.Errorf("can't group by '%s'", column)
	}
	rows, err := s.db.Query(fmt.Sprintf(`SELECT %[1]s, COUNT(*) FROM trips GROUP BY %[1]s`, column))
	if err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	defer rows.Close()

	groups := make([]tripclean.Group, 0)
	for rows.Next() {
		var g tripclean.Group
		if err := rows.Scan(&g.Key, &g.Count); err != nil {
			return nil, errors.Wrap(err, "scanning group")
		}
		groups = append(groups, g)
	}
	return groups, errors.Wrap(rows.Err(), "reading groups")
}

// Scan implements tripclean.Scanner, visiting trips in insertion order.
func (s *Store) Scan(fn func(t *tripclean.Trip) error) error {
	rows, err := s.db.Query(`SELECT id, ` + columns + ` FROM trips ORDER BY id`)
	if err != nil {
		return errors.Wrap(err, "querying trips")
	}
	defer rows.Close()

	for rows.Next() {
		t := &tripclean.Trip{}
		var pickup, dropoff string
		err := rows.Scan(&t.ID, &t.TripID, &t.VendorID, &pickup, &dropoff, &t.PassengerCount,
			&t.PickupLongitude, &t.PickupLatitude, &t.DropoffLongitude, &t.DropoffLatitude,
			&t.StoreAndFwdFlag, &t.TripDuration, &t.TripSpeed, &t.Distance, &t.PickupHour, &t.DayOfWeek)
		if err != nil {
			return errors.Wrap(err, "scanning trip")
		}
		if t.PickupDatetime, err = time.Parse(tripclean.TimeLayout, pickup); err != nil {
			return errors.Wrapf(err, "parsing stored pickup time of %s", t.TripID)
		}
		if t.DropoffDatetime, err = time.Parse(tripclean.TimeLayout, dropoff); err != nil {
			return errors.Wrapf(err, "parsing stored dropoff time of %s", t.TripID)
		}
		if err := fn(t); err != nil {
			return err
		}
	}
	return errors.Wrap(rows.Err(), "reading trips")
}

// Tx is a tripclean.TripTx wrapping a SQL transaction.
type Tx struct {
	tx *sql.Tx
}

// Exists implements tripclean.TripTx.
func (t *Tx) Exists(tripID string) (bool, error) {
	var id int64
	err := t.tx.QueryRow(`SELECT id FROM trips WHERE trip_id = ?`, tripID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	} else if err != nil {
		return false, errors.Wrap(err, "looking up trip")
	}
	return true, nil
}

// Insert implements tripclean.TripTx. A uniqueness violation is reported
// as tripclean.ErrDuplicateTrip.
func (t *Tx) Insert(trip *tripclean.Trip) error {
	res, err := t.tx.Exec(`INSERT INTO trips (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trip.TripID, trip.VendorID,
		trip.PickupDatetime.Format(tripclean.TimeLayout), trip.DropoffDatetime.Format(tripclean.TimeLayout),
		trip.PassengerCount,
		trip.PickupLongitude, trip.PickupLatitude, trip.DropoffLongitude, trip.DropoffLatitude,
		trip.StoreAndFwdFlag, trip.TripDuration, trip.TripSpeed, trip.Distance, trip.PickupHour, trip.DayOfWeek)
	if err != nil {
		if serr, ok := err.(sqlite3.Error); ok && serr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return errors.Wrapf(tripclean.ErrDuplicateTrip, "inserting %s", trip.TripID)
		}
		return errors.Wrapf(err, "inserting %s", trip.TripID)
	}
	trip.ID, err = res.LastInsertId()
	return errors.Wrap(err, "getting inserted id")
}

// Commit implements tripclean.TripTx.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback implements tripclean.TripTx.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}
