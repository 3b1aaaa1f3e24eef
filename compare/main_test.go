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

package compare

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pilosa/tripclean"
	"github.com/pilosa/tripclean/ingest"
	"github.com/pilosa/tripclean/test"
)

func fillStore(t *testing.T, kind string) string {
	path := test.TempPath(t, "trips")
	s, err := ingest.OpenStore(kind, path)
	test.ErrNil(t, err, "opening store")
	test.ErrNil(t, s.EnsureSchema(), "ensuring schema")
	for _, trip := range []*tripclean.Trip{
		test.NewTrip("id1", "2016-03-14 17:24:55"),
		test.NewTrip("id2", "2016-03-14 09:00:00"),
		test.NewTrip("id3", "2016-03-15 17:00:00"),
	} {
		tx, err := s.Begin()
		test.ErrNil(t, err, "beginning")
		test.ErrNil(t, tx.Insert(trip), "inserting")
		test.ErrNil(t, tx.Commit(), "committing")
	}
	test.ErrNil(t, s.Close(), "closing store")
	return path
}

func TestCompareSQLite(t *testing.T) {
	m := NewMain()
	m.DB = fillStore(t, "sqlite")
	var buf bytes.Buffer
	test.ErrNil(t, m.Write(&buf), "comparing")
	out := buf.String()
	if strings.Count(out, "  Monday: 2\n") != 2 || strings.Count(out, "  Tuesday: 1\n") != 2 {
		t.Fatalf("unexpected groups in:\n%s", out)
	}
	if !strings.HasSuffix(out, "identical: true\n") {
		t.Fatalf("expected identical groupings in:\n%s", out)
	}
}

func TestCompareClientOnly(t *testing.T) {
	m := NewMain()
	m.Store = "bolt"
	m.DB = fillStore(t, "bolt")
	m.Key = "pickup_hour"
	var buf bytes.Buffer
	test.ErrNil(t, m.Write(&buf), "grouping")
	test.MustBe(t, buf.String(), "client side grouping by pickup_hour\n  17: 2\n  9: 1\n")
}

func TestCompareUnknownKey(t *testing.T) {
	m := NewMain()
	m.DB = fillStore(t, "sqlite")
	m.Key = "fare"
	if err := m.Write(&bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
