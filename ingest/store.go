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

package ingest

import (
	"github.com/pilosa/tripclean"
	"github.com/pilosa/tripclean/boltdb"
	"github.com/pilosa/tripclean/leveldb"
	"github.com/pilosa/tripclean/sqlite"
	"github.com/pkg/errors"
)

// StoreKinds are the trip store backends OpenStore knows.
var StoreKinds = []string{"sqlite", "bolt", "leveldb"}

// OpenStore opens the trip store of the given kind at path.
func OpenStore(kind, path string) (tripclean.TripStore, error) {
	var (
		s   tripclean.TripStore
		err error
	)
	switch kind {
	case "sqlite":
		s, err = sqlite.Open(path)
	case "bolt":
		s, err = boltdb.Open(path)
	case "leveldb":
		s, err = leveldb.Open(path)
	default:
		return nil, errors.Errorf("unknown store '%s', use one of %v", kind, StoreKinds)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s store", kind)
	}
	return s, nil
}
