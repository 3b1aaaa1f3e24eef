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

// Package aggregate counts stored trips per key in two ways: by asking the
// store to group them (server side) and by scanning every trip and
// counting in memory (client side). Compare runs both and reports how long
// each took and whether they agree.
package aggregate

import (
	"sort"
	"strconv"
	"time"

	"github.com/pilosa/tripclean"
	"github.com/pilosa/tripclean/geo"
	"github.com/pkg/errors"
)

// CellPrecision is the geohash precision of the pickup_cell key, roughly
// 1.2km by 0.6km cells.
const CellPrecision = 6

var keyFuncs = map[string]func(t *tripclean.Trip) string{
	"day_of_week":        func(t *tripclean.Trip) string { return t.DayOfWeek },
	"pickup_hour":        func(t *tripclean.Trip) string { return strconv.Itoa(t.PickupHour) },
	"vendor_id":          func(t *tripclean.Trip) string { return strconv.Itoa(t.VendorID) },
	"passenger_count":    func(t *tripclean.Trip) string { return strconv.Itoa(t.PassengerCount) },
	"store_and_fwd_flag": func(t *tripclean.Trip) string { return t.StoreAndFwdFlag },
	"pickup_cell": func(t *tripclean.Trip) string {
		return geo.Cell(t.PickupLatitude, t.PickupLongitude, CellPrecision)
	},
}

// clientOnly keys have no column to group by in the store.
var clientOnly = map[string]bool{"pickup_cell": true}

// Keys returns every supported key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(keyFuncs))
	for k := range keyFuncs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ServerSupported reports whether the store can group by key itself.
func ServerSupported(key string) bool {
	_, ok := keyFuncs[key]
	return ok && !clientOnly[key]
}

func sortGroups(groups []tripclean.Group) {
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
}

// ServerSide has g group the stored trips by key.
func ServerSide(g tripclean.Grouper, key string) ([]tripclean.Group, error) {
	if !ServerSupported(key) {
		return nil, errors.Errorf("can't group by '%s' server side", key)
	}
	groups, err := g.GroupCount(key)
	if err != nil {
		return nil, errors.Wrapf(err, "grouping by %s", key)
	}
	sortGroups(groups)
	return groups, nil
}

// ClientSide scans every stored trip and counts them by key.
func ClientSide(s tripclean.Scanner, key string) ([]tripclean.Group, error) {
	keyFn, ok := keyFuncs[key]
	if !ok {
		return nil, errors.Errorf("unknown key '%s'", key)
	}
	counts := make(map[string]int64)
	err := s.Scan(func(t *tripclean.Trip) error {
		counts[keyFn(t)]++
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "scanning trips")
	}
	groups := make([]tripclean.Group, 0, len(counts))
	for k, c := range counts {
		groups = append(groups, tripclean.Group{Key: k, Count: c})
	}
	sortGroups(groups)
	return groups, nil
}

// GroupScanner is a store which supports both ways of counting.
type GroupScanner interface {
	tripclean.Grouper
	tripclean.Scanner
}

// Result is the outcome of Compare.
type Result struct {
	Key        string
	Server     []tripclean.Group
	Client     []tripclean.Group
	ServerTime time.Duration
	ClientTime time.Duration
	Identical  bool
}

// Compare counts the trips in s by key both ways.
func Compare(s GroupScanner, key string) (*Result, error) {
	res := &Result{Key: key}
	var err error
	start := time.Now()
	res.Server, err = ServerSide(s, key)
	if err != nil {
		return nil, err
	}
	res.ServerTime = time.Since(start)

	start = time.Now()
	res.Client, err = ClientSide(s, key)
	if err != nil {
		return nil, err
	}
	res.ClientTime = time.Since(start)
	res.Identical = equal(res.Server, res.Client)
	return res, nil
}

func equal(a, b []tripclean.Group) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
