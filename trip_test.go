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

package tripclean_test

import (
	"testing"
	"time"

	"github.com/pilosa/tripclean"
)

func TestRawRecordJoin(t *testing.T) {
	r := tripclean.RawRecord{"id1", "2", "", "x"}
	if got := r.Join(); got != "id1|2||x" {
		t.Fatalf("unexpected join: %q", got)
	}
	if got := (tripclean.RawRecord{}).Join(); got != "" {
		t.Fatalf("unexpected join of empty record: %q", got)
	}
}

func TestDayName(t *testing.T) {
	tests := []struct {
		date string
		exp  string
	}{
		{date: "2016-03-14 17:24:55", exp: "Monday"},
		{date: "2016-03-15 00:00:00", exp: "Tuesday"},
		{date: "2016-03-16 12:00:00", exp: "Wednesday"},
		{date: "2016-03-17 12:00:00", exp: "Thursday"},
		{date: "2016-03-18 12:00:00", exp: "Friday"},
		{date: "2016-03-19 12:00:00", exp: "Saturday"},
		{date: "2016-03-20 23:59:59", exp: "Sunday"},
	}
	for _, test := range tests {
		t.Run(test.date, func(t *testing.T) {
			ts, err := time.Parse(tripclean.TimeLayout, test.date)
			if err != nil {
				t.Fatalf("parsing date: %v", err)
			}
			if got := tripclean.DayName(tripclean.ISOWeekday(ts)); got != test.exp {
				t.Fatalf("got %s, expected %s", got, test.exp)
			}
		})
	}

	if tripclean.DayName(0) != "" || tripclean.DayName(8) != "" {
		t.Fatalf("out of range weekdays should have no name")
	}
}

func TestNexter(t *testing.T) {
	n := tripclean.NewNexter(1)
	for i := uint64(1); i <= 5; i++ {
		if got := n.Next(); got != i {
			t.Fatalf("position %d: got %d", i, got)
		}
		if last := n.Last(); last != i {
			t.Fatalf("last after %d: got %d", i, last)
		}
	}
}
