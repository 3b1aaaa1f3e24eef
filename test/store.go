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

package test

import (
	"testing"
	"time"

	"github.com/pilosa/tripclean"
	"github.com/pkg/errors"
)

// NewTrip gets a fully derived trip with the given trip id, picked up at
// pickup (in tripclean.TimeLayout).
func NewTrip(id, pickup string) *tripclean.Trip {
	pt, err := time.Parse(tripclean.TimeLayout, pickup)
	if err != nil {
		panic(err)
	}
	return &tripclean.Trip{
		TripID:           id,
		VendorID:         2,
		PickupDatetime:   pt,
		DropoffDatetime:  pt.Add(455 * time.Second),
		PassengerCount:   1,
		PickupLongitude:  -74.0060,
		PickupLatitude:   40.7128,
		DropoffLongitude: -73.9352,
		DropoffLatitude:  40.7306,
		StoreAndFwdFlag:  "N",
		TripDuration:     455,
		TripSpeed:        49.7,
		Distance:         6.286,
		PickupHour:       pt.Hour(),
		DayOfWeek:        tripclean.DayName(tripclean.ISOWeekday(pt)),
	}
}

func mustInsert(t *testing.T, s tripclean.TripStore, trip *tripclean.Trip) {
	t.Helper()
	tx, err := s.Begin()
	ErrNil(t, err, "beginning")
	ErrNil(t, tx.Insert(trip), "inserting "+trip.TripID)
	ErrNil(t, tx.Commit(), "committing "+trip.TripID)
}

func mustExist(t *testing.T, s tripclean.TripStore, id string) bool {
	t.Helper()
	tx, err := s.Begin()
	ErrNil(t, err, "beginning")
	ok, err := tx.Exists(id)
	ErrNil(t, err, "looking up "+id)
	ErrNil(t, tx.Rollback(), "rolling back")
	return ok
}

// TripStoreContract checks the behavior every tripclean.TripStore must
// have. open is called to open the same store more than once; the first
// call must return an empty store.
func TripStoreContract(t *testing.T, open func(t *testing.T) tripclean.TripStore) {
	s := open(t)
	ErrNil(t, s.EnsureSchema(), "ensuring schema")
	ErrNil(t, s.EnsureSchema(), "ensuring schema twice")

	if mustExist(t, s, "id1") {
		t.Fatal("empty store has id1")
	}

	mustInsert(t, s, NewTrip("id1", "2016-03-14 17:24:55"))
	if !mustExist(t, s, "id1") {
		t.Fatal("id1 missing after commit")
	}

	// rolled back inserts are discarded
	tx, err := s.Begin()
	ErrNil(t, err, "beginning")
	ErrNil(t, tx.Insert(NewTrip("id2", "2016-03-15 08:00:00")), "inserting id2")
	ErrNil(t, tx.Rollback(), "rolling back id2")
	if mustExist(t, s, "id2") {
		t.Fatal("id2 exists after rollback")
	}

	// the store itself rejects duplicates
	tx, err = s.Begin()
	ErrNil(t, err, "beginning")
	err = tx.Insert(NewTrip("id1", "2016-03-16 09:00:00"))
	if errors.Cause(err) != tripclean.ErrDuplicateTrip {
		t.Fatalf("expected ErrDuplicateTrip inserting id1 again, got %v", err)
	}
	ErrNil(t, tx.Rollback(), "rolling back duplicate")

	mustInsert(t, s, NewTrip("id3", "2016-03-20 23:10:00"))
	ErrNil(t, s.Close(), "closing")

	// committed trips survive reopening
	s = open(t)
	defer s.Close()
	ErrNil(t, s.EnsureSchema(), "ensuring schema after reopen")
	if !mustExist(t, s, "id1") || !mustExist(t, s, "id3") {
		t.Fatal("trips lost after reopen")
	}
	if mustExist(t, s, "id2") {
		t.Fatal("id2 exists after reopen")
	}

	sc, ok := s.(tripclean.Scanner)
	if !ok {
		return
	}
	got := make([]*tripclean.Trip, 0)
	ErrNil(t, sc.Scan(func(trip *tripclean.Trip) error {
		got = append(got, trip)
		return nil
	}), "scanning")
	if len(got) != 2 {
		t.Fatalf("expected 2 trips, scanned %d", len(got))
	}
	exp := NewTrip("id1", "2016-03-14 17:24:55")
	exp.ID = got[0].ID
	MustBe(t, got[0], exp, "first scanned trip")
	MustBe(t, got[1].TripID, "id3", "second scanned trip")
	MustBe(t, got[1].DayOfWeek, "Sunday", "second scanned day")
	if got[0].ID == 0 || got[0].ID >= got[1].ID {
		t.Fatalf("surrogate ids not increasing: %d, %d", got[0].ID, got[1].ID)
	}

	stop := errors.New("stop")
	n := 0
	err = sc.Scan(func(trip *tripclean.Trip) error {
		n++
		return stop
	})
	if err != stop || n != 1 {
		t.Fatalf("scan should stop at first error, got %v after %d", err, n)
	}
}
