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

// Package compare times server side against client side grouping of the
// stored trips.
package compare

import (
	"fmt"
	"io"
	"os"

	"github.com/pilosa/tripclean"
	"github.com/pilosa/tripclean/aggregate"
	"github.com/pilosa/tripclean/ingest"
	"github.com/pkg/errors"
)

// Main holds the options for comparing grouping strategies.
type Main struct {
	Store  string `help:"Trip store backend: sqlite, bolt or leveldb."`
	DB     string `help:"Path of the trip store."`
	Key    string `help:"Key to group trips by: day_of_week, pickup_hour, vendor_id, passenger_count, store_and_fwd_flag or pickup_cell."`
	Config string `help:"Path to a TOML configuration file."`
}

// NewMain returns a new Main.
func NewMain() *Main {
	return &Main{
		Store: "sqlite",
		DB:    "trips.db",
		Key:   "day_of_week",
	}
}

// Run prints the comparison to stdout.
func (m *Main) Run() error {
	return m.Write(os.Stdout)
}

// Write groups the stored trips and writes a report to w. When the store
// can't group by the key itself only the client side counts are reported.
func (m *Main) Write(w io.Writer) (err error) {
	store, err := ingest.OpenStore(m.Store, m.DB)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing store")
		}
	}()

	gs, ok := store.(aggregate.GroupScanner)
	if ok && aggregate.ServerSupported(m.Key) {
		res, err := aggregate.Compare(gs, m.Key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "server side grouping by %s took %v\n", m.Key, res.ServerTime)
		writeGroups(w, res.Server)
		fmt.Fprintf(w, "client side grouping by %s took %v\n", m.Key, res.ClientTime)
		writeGroups(w, res.Client)
		fmt.Fprintf(w, "identical: %v\n", res.Identical)
		return nil
	}

	sc, ok := store.(tripclean.Scanner)
	if !ok {
		return errors.Errorf("%s store can't be scanned", m.Store)
	}
	groups, err := aggregate.ClientSide(sc, m.Key)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "client side grouping by %s\n", m.Key)
	writeGroups(w, groups)
	return nil
}

func writeGroups(w io.Writer, groups []tripclean.Group) {
	for _, g := range groups {
		fmt.Fprintf(w, "  %s: %d\n", g.Key, g.Count)
	}
}
