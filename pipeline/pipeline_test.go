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

package pipeline_test

import (
	"context"
	"math"
	"testing"

	"github.com/pilosa/tripclean"
	"github.com/pilosa/tripclean/mock"
	"github.com/pilosa/tripclean/pipeline"
	"github.com/pilosa/tripclean/test"
	"github.com/pkg/errors"
)

func rec(fields ...string) tripclean.RawRecord {
	return tripclean.RawRecord(fields)
}

// valid returns a well formed record. Pickup is Monday 2016-03-14 17:24:55
// in lower Manhattan, dropoff in Williamsburg, 455 seconds later.
func valid(id string) tripclean.RawRecord {
	return rec(id, "2", "2016-03-14 17:24:55", "2016-03-14 17:32:30", "1",
		"-74.0060", "40.7128", "-73.9352", "40.7306", "N", "455")
}

func with(r tripclean.RawRecord, field int, val string) tripclean.RawRecord {
	ret := make(tripclean.RawRecord, len(r))
	copy(ret, r)
	ret[field] = val
	return ret
}

func run(t *testing.T, store *mock.TripStore, recs ...tripclean.RawRecord) (*mock.RejectionSink, pipeline.Summary) {
	t.Helper()
	sink := &mock.RejectionSink{}
	p := pipeline.New(mock.NewSource(recs...), store, sink)
	sum, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("running pipeline: %v", err)
	}
	return sink, sum
}

func TestEndToEnd(t *testing.T) {
	store := mock.NewTripStore()
	recs := []tripclean.RawRecord{
		valid("id1"),
		rec("id2", "2", "2016-03-14 17:24:55", "2016-03-14 17:32:30", "1", "-74.0060", "40.7128", "-73.9352", "40.7306"),
		valid("id1"),
		with(valid("id3"), tripclean.PassengerCount, "0"),
		with(valid("id4"), tripclean.TripDuration, "50000"),
	}
	sink, sum := run(t, store, recs...)

	test.MustBe(t, store.Len(), 1, "stored trips")
	test.MustBe(t, sink.Reasons(), []tripclean.Reason{
		tripclean.ReasonWrongFieldCount,
		tripclean.ReasonDuplicate,
		tripclean.ReasonAnomalousData,
		tripclean.ReasonAnomalousData,
	}, "reasons")

	rows := make([]uint64, len(sink.Rejections))
	ids := make([]string, len(sink.Rejections))
	for i, r := range sink.Rejections {
		rows[i] = r.Row
		ids[i] = r.TripID
	}
	test.MustBe(t, rows, []uint64{2, 3, 4, 5}, "rows")
	test.MustBe(t, ids, []string{"", "id1", "id3", "id4"}, "trip ids")
	test.MustBe(t, sink.Rejections[0].Raw, "id2|2|2016-03-14 17:24:55|2016-03-14 17:32:30|1|-74.0060|40.7128|-73.9352|40.7306", "raw row")

	test.MustBe(t, sum.Read, uint64(5), "read")
	test.MustBe(t, sum.Accepted, uint64(1), "accepted")
	test.MustBe(t, sum.TotalRejected(), uint64(4), "rejected")
	test.MustBe(t, sum.Rejected[tripclean.ReasonAnomalousData], uint64(2), "anomalous")
}

func TestDerivedFields(t *testing.T) {
	store := mock.NewTripStore()
	sink, _ := run(t, store, valid("id1"))
	if len(sink.Rejections) != 0 {
		t.Fatalf("unexpected rejections: %v", sink.Rejections)
	}
	trip := store.Get("id1")
	if trip == nil {
		t.Fatal("trip not stored")
	}
	test.MustBe(t, trip.VendorID, 2, "vendor")
	test.MustBe(t, trip.PassengerCount, 1, "passengers")
	test.MustBe(t, trip.StoreAndFwdFlag, "N", "flag")
	test.MustBe(t, trip.TripDuration, 455, "duration")
	test.MustBe(t, trip.PickupHour, 17, "hour")
	test.MustBe(t, trip.DayOfWeek, "Monday", "day")
	test.MustBe(t, trip.PickupDatetime.Format(tripclean.TimeLayout), "2016-03-14 17:24:55", "pickup")
	test.MustBe(t, trip.DropoffDatetime.Format(tripclean.TimeLayout), "2016-03-14 17:32:30", "dropoff")
	test.MustBe(t, trip.PickupLatitude, 40.7128, "pickup latitude keeps degrees")
	if math.Abs(trip.Distance-6.286) > 0.001 {
		t.Fatalf("unexpected distance: %v", trip.Distance)
	}
	if exp := trip.Distance / (455.0 / 3600); math.Abs(trip.TripSpeed-exp) > 1e-9 {
		t.Fatalf("unexpected speed: %v, expected %v", trip.TripSpeed, exp)
	}
}

func TestSamePointHasNoDistance(t *testing.T) {
	store := mock.NewTripStore()
	r := valid("id1")
	r[tripclean.DropoffLongitude] = r[tripclean.PickupLongitude]
	r[tripclean.DropoffLatitude] = r[tripclean.PickupLatitude]
	run(t, store, r)
	trip := store.Get("id1")
	if trip == nil {
		t.Fatal("trip not stored")
	}
	test.MustBe(t, trip.Distance, 0.0, "distance")
	test.MustBe(t, trip.TripSpeed, 0.0, "speed")
}

func TestRejections(t *testing.T) {
	tests := []struct {
		name string
		rec  tripclean.RawRecord
		exp  tripclean.Reason
	}{
		{name: "empty", rec: rec(), exp: tripclean.ReasonWrongFieldCount},
		{name: "twelve fields", rec: append(valid("x"), "extra"), exp: tripclean.ReasonWrongFieldCount},
		{name: "vendor", rec: with(valid("x"), tripclean.VendorID, "two"), exp: tripclean.ReasonInvalidData},
		{name: "float vendor", rec: with(valid("x"), tripclean.VendorID, "2.0"), exp: tripclean.ReasonInvalidData},
		{name: "pickup time", rec: with(valid("x"), tripclean.PickupDatetime, "2016-03-14T17:24:55"), exp: tripclean.ReasonInvalidData},
		{name: "unpadded time", rec: with(valid("x"), tripclean.DropoffDatetime, "2016-3-14 17:32:30"), exp: tripclean.ReasonInvalidData},
		{name: "passengers", rec: with(valid("x"), tripclean.PassengerCount, ""), exp: tripclean.ReasonInvalidData},
		{name: "longitude", rec: with(valid("x"), tripclean.PickupLongitude, "west"), exp: tripclean.ReasonInvalidData},
		{name: "nan latitude", rec: with(valid("x"), tripclean.DropoffLatitude, "NaN"), exp: tripclean.ReasonInvalidData},
		{name: "duration", rec: with(valid("x"), tripclean.TripDuration, "4.5"), exp: tripclean.ReasonInvalidData},
		{name: "hex float", rec: with(valid("x"), tripclean.PickupLatitude, "0x1p-2"), exp: tripclean.ReasonInvalidData},
		{name: "signed hex float", rec: with(valid("x"), tripclean.PickupLongitude, "-0X1.2p6"), exp: tripclean.ReasonInvalidData},
		{name: "hex int", rec: with(valid("x"), tripclean.TripDuration, "0x1c7"), exp: tripclean.ReasonInvalidData},
		{name: "leading underscore", rec: with(valid("x"), tripclean.TripDuration, "_455"), exp: tripclean.ReasonInvalidData},
		{name: "trailing underscore", rec: with(valid("x"), tripclean.TripDuration, "455_"), exp: tripclean.ReasonInvalidData},
		{name: "double underscore", rec: with(valid("x"), tripclean.TripDuration, "4__55"), exp: tripclean.ReasonInvalidData},
		{name: "underscore by point", rec: with(valid("x"), tripclean.DropoffLongitude, "-73_.9352"), exp: tripclean.ReasonInvalidData},
		{name: "no passengers", rec: with(valid("x"), tripclean.PassengerCount, "0"), exp: tripclean.ReasonAnomalousData},
		{name: "negative passengers", rec: with(valid("x"), tripclean.PassengerCount, "-3"), exp: tripclean.ReasonAnomalousData},
		{name: "too long", rec: with(valid("x"), tripclean.TripDuration, "43201"), exp: tripclean.ReasonAnomalousData},
		{name: "zero duration", rec: with(valid("x"), tripclean.TripDuration, "0"), exp: tripclean.ReasonAnomalousData},
		{name: "negative duration", rec: with(valid("x"), tripclean.TripDuration, "-10"), exp: tripclean.ReasonAnomalousData},
		{name: "invalid beats anomalous", rec: with(with(valid("x"), tripclean.PassengerCount, "0"), tripclean.VendorID, "?"), exp: tripclean.ReasonInvalidData},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store := mock.NewTripStore()
			sink, _ := run(t, store, test.rec)
			if len(sink.Rejections) != 1 {
				t.Fatalf("expected exactly one rejection, got %v", sink.Rejections)
			}
			if got := sink.Rejections[0].Reason; got != test.exp {
				t.Fatalf("got %q, expected %q", got, test.exp)
			}
			if store.Len() != 0 {
				t.Fatalf("rejected record was stored")
			}
			if store.Begun != store.Rollbacks || store.Commits != 0 {
				t.Fatalf("unbalanced transactions: begun %d, rolled back %d, committed %d", store.Begun, store.Rollbacks, store.Commits)
			}
		})
	}
}

func TestAcceptedBoundaries(t *testing.T) {
	store := mock.NewTripStore()
	sink, sum := run(t, store,
		with(valid("max"), tripclean.TripDuration, "43200"),
		with(valid("one"), tripclean.TripDuration, "1"),
		with(valid("spaces"), tripclean.PassengerCount, " 3 "),
		with(with(valid("underscores"), tripclean.TripDuration, "1_000"), tripclean.PickupLongitude, "-74.006_0"),
	)
	if len(sink.Rejections) != 0 {
		t.Fatalf("unexpected rejections: %v", sink.Rejections)
	}
	test.MustBe(t, sum.Accepted, uint64(4), "accepted")
	test.MustBe(t, store.Get("spaces").PassengerCount, 3, "trimmed passenger count")
	test.MustBe(t, store.Get("underscores").TripDuration, 1000, "duration with underscore")
	test.MustBe(t, store.Get("underscores").PickupLongitude, -74.006, "longitude with underscore")
}

func TestWrongFieldCountSkipsStore(t *testing.T) {
	store := mock.NewTripStore()
	run(t, store, rec("a", "b", "c"), rec("a,b,c"))
	test.MustBe(t, store.Begun, 0, "transactions")
	test.MustBe(t, store.Lookups, 0, "lookups")
}

func TestDuplicateCheckPrecedesCoercion(t *testing.T) {
	store := mock.NewTripStore()
	store.Put(&tripclean.Trip{TripID: "id1"})
	sink, _ := run(t, store, with(valid("id1"), tripclean.VendorID, "garbage"))
	test.MustBe(t, sink.Reasons(), []tripclean.Reason{tripclean.ReasonDuplicate}, "reasons")
	test.MustBe(t, store.Len(), 1, "stored trips")
}

func TestRerunIsIdempotent(t *testing.T) {
	store := mock.NewTripStore()
	recs := []tripclean.RawRecord{valid("a"), valid("b"), valid("c")}
	sink, _ := run(t, store, recs...)
	test.MustBe(t, len(sink.Rejections), 0, "first run rejections")
	test.MustBe(t, store.Len(), 3, "first run stored")

	sink, sum := run(t, store, recs...)
	test.MustBe(t, store.Len(), 3, "second run stored")
	test.MustBe(t, sum.Accepted, uint64(0), "second run accepted")
	test.MustBe(t, sink.Reasons(), []tripclean.Reason{tripclean.ReasonDuplicate, tripclean.ReasonDuplicate, tripclean.ReasonDuplicate}, "second run reasons")
}

func TestSequenceHasNoGaps(t *testing.T) {
	store := mock.NewTripStore()
	recs := make([]tripclean.RawRecord, 0)
	for i := 0; i < 50; i++ {
		// every record is rejected so that all positions show up in the log
		recs = append(recs, rec("short"))
	}
	sink, _ := run(t, store, recs...)
	for i, r := range sink.Rejections {
		if r.Row != uint64(i+1) {
			t.Fatalf("rejection %d has row %d", i, r.Row)
		}
	}
}

func TestFirstRowOption(t *testing.T) {
	sink := &mock.RejectionSink{}
	p := pipeline.New(mock.NewSource(rec("x"), rec("y")), mock.NewTripStore(), sink, pipeline.OptFirstRow(0))
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("running: %v", err)
	}
	test.MustBe(t, sink.Rejections[0].Row, uint64(0), "first row")
	test.MustBe(t, sink.Rejections[1].Row, uint64(1), "second row")
}

func TestUniquenessViolationIsFatal(t *testing.T) {
	store := mock.NewTripStore()
	store.Put(&tripclean.Trip{TripID: "id1"})
	store.HideExisting = true
	sink := &mock.RejectionSink{}
	p := pipeline.New(mock.NewSource(valid("id1"), valid("id2")), store, sink)
	sum, err := p.Run(context.Background())
	if errors.Cause(err) != tripclean.ErrDuplicateTrip {
		t.Fatalf("expected duplicate trip error, got %v", err)
	}
	test.MustBe(t, sum.Read, uint64(1), "processing stops at the violation")
	test.MustBe(t, store.Len(), 1, "stored trips")
	test.MustBe(t, store.Rollbacks, 1, "rollbacks")
	test.MustBe(t, len(sink.Rejections), 0, "rejections")
}

func TestCommitErrorIsFatal(t *testing.T) {
	store := mock.NewTripStore()
	store.CommitErr = errors.New("disk full")
	sink := &mock.RejectionSink{}
	p := pipeline.New(mock.NewSource(valid("id1"), valid("id2")), store, sink)
	sum, err := p.Run(context.Background())
	if errors.Cause(err) != store.CommitErr {
		t.Fatalf("expected commit error, got %v", err)
	}
	test.MustBe(t, sum.Read, uint64(1), "processing stops at the failed commit")
	test.MustBe(t, store.Len(), 0, "stored trips")
	test.MustBe(t, store.Commits, 0, "commits")
	test.MustBe(t, store.Rollbacks, 1, "failed commit rolled back")
	test.MustBe(t, len(sink.Rejections), 0, "rejections")
}

func TestSourceErrorIsFatal(t *testing.T) {
	src := mock.NewSource(valid("id1"))
	src.Err = errors.New("bad encoding")
	p := pipeline.New(src, mock.NewTripStore(), &mock.RejectionSink{})
	sum, err := p.Run(context.Background())
	if err == nil || errors.Cause(err) != src.Err {
		t.Fatalf("expected source error, got %v", err)
	}
	test.MustBe(t, sum.Accepted, uint64(1), "accepted before failure")
}

func TestSinkErrorIsFatal(t *testing.T) {
	sink := &mock.RejectionSink{Err: errors.New("disk full")}
	store := mock.NewTripStore()
	p := pipeline.New(mock.NewSource(rec("short"), valid("id1")), store, sink)
	_, err := p.Run(context.Background())
	if errors.Cause(err) != sink.Err {
		t.Fatalf("expected sink error, got %v", err)
	}
	test.MustBe(t, store.Len(), 0, "stored trips")
}

func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := pipeline.New(mock.NewSource(valid("id1")), mock.NewTripStore(), &mock.RejectionSink{})
	sum, err := p.Run(ctx)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	test.MustBe(t, sum.Read, uint64(0), "read")
}

func TestStats(t *testing.T) {
	stats := &mock.RecordingStatter{}
	p := pipeline.New(mock.NewSource(valid("a"), valid("a"), rec("x")), mock.NewTripStore(), &mock.RejectionSink{}, pipeline.OptStatter(stats))
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("running: %v", err)
	}
	test.MustBe(t, stats.Get("trips.read"), int64(3), "read")
	test.MustBe(t, stats.Get("trips.accepted"), int64(1), "accepted")
	test.MustBe(t, stats.Get("trips.rejected"), int64(2), "rejected")
	test.MustBe(t, stats.Get("trips.rejected.duplicate"), int64(1), "duplicates")
	test.MustBe(t, stats.Get("trips.rejected.wrong_field_count"), int64(1), "wrong field count")

	test.MustBe(t, len(stats.Timings["trips.process"]), 3, "process timings")
	test.MustBe(t, stats.Gauges["trips.row"], float64(3), "last row")
	test.MustBe(t, len(stats.Histograms["trips.distance"]), 1, "distances")
	if d := stats.Histograms["trips.distance"][0]; math.Abs(d-6.286) > 0.001 {
		t.Fatalf("distance histogram got %v", d)
	}
	test.MustBe(t, len(stats.Histograms["trips.speed"]), 1, "speeds")
	test.MustBe(t, stats.Sets["trips.vendor"], map[string]struct{}{"2": {}}, "vendors")
}

func TestBlankRecord(t *testing.T) {
	store := mock.NewTripStore()
	sink, sum := run(t, store, valid("id1"), tripclean.RawRecord{}, valid("id1"))
	test.MustBe(t, sum.Accepted, uint64(1), "accepted")
	test.MustBe(t, len(sink.Rejections), 2, "rejections")
	test.MustBe(t, sink.Rejections[0], tripclean.Rejection{Row: 2, Reason: tripclean.ReasonWrongFieldCount}, "blank record")
	test.MustBe(t, sink.Rejections[1].Row, uint64(3), "row after blank record")
	test.MustBe(t, sink.Rejections[1].Reason, tripclean.ReasonDuplicate, "reason after blank record")
}
