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

package mock

import (
	"sort"
	"strconv"
	"sync"

	"github.com/pilosa/tripclean"
	"github.com/pkg/errors"
)

var (
	_ tripclean.TripStore = &TripStore{}
	_ tripclean.Grouper   = &TripStore{}
	_ tripclean.Scanner   = &TripStore{}
)

// TripStore is an in-memory tripclean.TripStore. Inserts only become
// visible when their transaction commits. It also records how it was used
// so tests can assert on it.
type TripStore struct {
	mu     sync.Mutex
	trips  map[string]*tripclean.Trip
	order  []string
	lastID int64

	SchemaEnsured bool
	Closed        bool
	Lookups       int
	Begun         int
	Commits       int
	Rollbacks     int

	// HideExisting makes Exists always report false, so that a duplicate
	// can slip through to Insert.
	HideExisting bool

	// CommitErr, when set, is returned by Commit, which then leaves the
	// transaction open.
	CommitErr error
}

// NewTripStore gets an empty TripStore.
func NewTripStore() *TripStore {
	return &TripStore{
		trips: make(map[string]*tripclean.Trip),
	}
}

// EnsureSchema implements tripclean.TripStore.
func (s *TripStore) EnsureSchema() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SchemaEnsured = true
	return nil
}

// Close implements tripclean.TripStore.
func (s *TripStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

// Begin implements tripclean.TripStore.
func (s *TripStore) Begin() (tripclean.TripTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Begun++
	return &tx{s: s}, nil
}

// Len returns the number of committed trips.
func (s *TripStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trips)
}

// Get returns the committed trip with the given trip id, or nil.
func (s *TripStore) Get(tripID string) *tripclean.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trips[tripID]
}

// Put stores trips directly, bypassing transactions.
func (s *TripStore) Put(trips ...*tripclean.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range trips {
		s.put(t)
	}
}

func (s *TripStore) put(t *tripclean.Trip) {
	s.lastID++
	t.ID = s.lastID
	s.trips[t.TripID] = t
	s.order = append(s.order, t.TripID)
}

// Scan implements tripclean.Scanner in insertion order.
func (s *TripStore) Scan(fn func(t *tripclean.Trip) error) error {
	s.mu.Lock()
	trips := make([]*tripclean.Trip, 0, len(s.order))
	for _, id := range s.order {
		trips = append(trips, s.trips[id])
	}
	s.mu.Unlock()
	for _, t := range trips {
		if err := fn(t); err != nil {
			return err
		}
	}
	return nil
}

// GroupCount implements tripclean.Grouper for the columns the sqlite store
// supports.
func (s *TripStore) GroupCount(column string) ([]tripclean.Group, error) {
	var key func(t *tripclean.Trip) string
	switch column {
	case "day_of_week":
		key = func(t *tripclean.Trip) string { return t.DayOfWeek }
	case "pickup_hour":
		key = func(t *tripclean.Trip) string { return strconv.Itoa(t.PickupHour) }
	case "vendor_id":
		key = func(t *tripclean.Trip) string { return strconv.Itoa(t.VendorID) }
	case "passenger_count":
		key = func(t *tripclean.Trip) string { return strconv.Itoa(t.PassengerCount) }
	case "store_and_fwd_flag":
		key = func(t *tripclean.Trip) string { return t.StoreAndFwdFlag }
	default:
		return nil, errors.Errorf("can't group by '%s'", column)
	}
	counts := make(map[string]int64)
	err := s.Scan(func(t *tripclean.Trip) error {
		counts[key(t)]++
		return nil
	})
	if err != nil {
		return nil, err
	}
	groups := make([]tripclean.Group, 0, len(counts))
	for k, c := range counts {
		groups = append(groups, tripclean.Group{Key: k, Count: c})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups, nil
}

type tx struct {
	s       *TripStore
	pending []*tripclean.Trip
	done    bool
}

func (t *tx) Exists(tripID string) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.Lookups++
	if t.s.HideExisting {
		return false, nil
	}
	_, ok := t.s.trips[tripID]
	return ok, nil
}

func (t *tx) Insert(trip *tripclean.Trip) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.trips[trip.TripID]; ok {
		return errors.Wrapf(tripclean.ErrDuplicateTrip, "inserting %s", trip.TripID)
	}
	t.pending = append(t.pending, trip)
	return nil
}

func (t *tx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.CommitErr != nil {
		return t.s.CommitErr
	}
	t.done = true
	t.s.Commits++
	for _, trip := range t.pending {
		t.s.put(trip)
	}
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.Rollbacks++
	return nil
}
