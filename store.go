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

package tripclean

import (
	"github.com/pkg/errors"
)

// ErrDuplicateTrip is returned (possibly wrapped) by TripTx.Insert when a
// trip with the same trip id is already stored.
var ErrDuplicateTrip = errors.New("trip id already stored")

// TripStore is a durable table of trips keyed by trip id.
type TripStore interface {
	// EnsureSchema creates the trips table if it doesn't exist yet.
	EnsureSchema() error

	// Begin starts the unit of work for a single raw record: the
	// duplicate check and, if the record is accepted, its insert.
	Begin() (TripTx, error)

	Close() error
}

// TripTx is a transaction against a TripStore. Exactly one of Commit or
// Rollback must be called.
type TripTx interface {
	Exists(tripID string) (bool, error)
	Insert(t *Trip) error
	Commit() error
	Rollback() error
}

// Group is the number of trips sharing one value of an aggregation key.
type Group struct {
	Key   string
	Count int64
}

// Grouper is a store which can group and count trips by a column itself.
type Grouper interface {
	GroupCount(column string) ([]Group, error)
}

// Scanner is a store which can hand every stored trip to fn, stopping at the
// first error fn returns.
type Scanner interface {
	Scan(fn func(t *Trip) error) error
}
