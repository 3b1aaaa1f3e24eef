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

package csv_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pilosa/tripclean"
	"github.com/pilosa/tripclean/csv"
	"github.com/pilosa/tripclean/test"
)

const header = "id,vendor_id,pickup_datetime,dropoff_datetime,passenger_count,pickup_longitude,pickup_latitude,dropoff_longitude,dropoff_latitude,store_and_fwd_flag,trip_duration\n"

func mustSource(t *testing.T, name string) *csv.Source {
	t.Helper()
	o, err := csv.NewOpener(name, "")
	test.ErrNil(t, err, "getting opener")
	src, err := csv.NewSource(o)
	test.ErrNil(t, err, "getting source")
	t.Cleanup(func() { src.Close() })
	return src
}

func readAll(t *testing.T, src tripclean.Source) []tripclean.RawRecord {
	t.Helper()
	recs := make([]tripclean.RawRecord, 0)
	for {
		rec, err := src.Record()
		if err == io.EOF {
			return recs
		}
		test.ErrNil(t, err, "reading record")
		recs = append(recs, rec)
	}
}

func TestCSVSource(t *testing.T) {
	f := test.MustTempFile(t, header+
		"id2875421,2,2016-03-14 17:24:55,2016-03-14 17:32:30,1,-73.982154846191406,40.767936706542969,-73.964630126953125,40.765602111816406,N,455\n"+
		"id2377394,1,2016-06-12 00:43:35,2016-06-12 00:54:38,1\n"+
		"\"id,quoted\",1,a,b,c,d,e,f,g,h,i,j\n")
	src := mustSource(t, f)
	test.MustBe(t, len(src.Header()), 11, "header length")
	test.MustBe(t, src.Header()[0], "id", "first header field")

	recs := readAll(t, src)
	test.MustBe(t, len(recs), 3, "record count")
	test.MustBe(t, len(recs[0]), 11, "first record length")
	test.MustBe(t, recs[0][tripclean.TripID], "id2875421", "first trip id")
	test.MustBe(t, recs[0][tripclean.TripDuration], "455", "first duration")
	test.MustBe(t, len(recs[1]), 5, "short record keeps its length")
	test.MustBe(t, recs[2][0], "id,quoted", "quoted field")
	test.MustBe(t, len(recs[2]), 12, "long record keeps its length")
}

func TestCSVSourceBlankLines(t *testing.T) {
	src := mustSource(t, test.MustTempFile(t, header+"a,b\n\nc,d,e\n\n"))
	recs := readAll(t, src)
	test.MustBe(t, recs, []tripclean.RawRecord{{"a", "b"}, {}, {"c", "d", "e"}, {}}, "records")
}

func TestCSVSourceBlankHeader(t *testing.T) {
	src := mustSource(t, test.MustTempFile(t, "\n"+header+"a\n"))
	test.MustBe(t, src.Header(), []string{}, "header")
	recs := readAll(t, src)
	test.MustBe(t, len(recs), 2, "records")
	test.MustBe(t, recs[1], tripclean.RawRecord{"a"}, "record after header line")
}

func TestCSVSourceHeaderOnly(t *testing.T) {
	src := mustSource(t, test.MustTempFile(t, header))
	test.MustBe(t, len(readAll(t, src)), 0, "records")
}

func TestCSVSourceEmpty(t *testing.T) {
	o, err := csv.NewOpener(test.MustTempFile(t, ""), "")
	test.ErrNil(t, err, "getting opener")
	if _, err := csv.NewSource(o); err == nil {
		t.Fatal("expected error for input without header")
	}
}

func TestCSVSourceMissingFile(t *testing.T) {
	o, err := csv.NewOpener(test.TempPath(t, "nope.csv"), "")
	test.ErrNil(t, err, "getting opener")
	if _, err := csv.NewSource(o); err == nil {
		t.Fatal("expected error opening missing file")
	}
}

func TestCSVSourceInvalidUTF8(t *testing.T) {
	src := mustSource(t, test.MustTempFile(t, header+"id1,\xff\xfe,x\n"))
	if _, err := src.Record(); err == nil || err == io.EOF {
		t.Fatalf("expected encoding error, got %v", err)
	}
}

func TestCSVSourceHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/train.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, header+"a,b\nc,d,e\n")
	}))
	defer srv.Close()

	src := mustSource(t, srv.URL+"/train.csv")
	recs := readAll(t, src)
	test.MustBe(t, recs, []tripclean.RawRecord{{"a", "b"}, {"c", "d", "e"}}, "records")

	o, err := csv.NewOpener(srv.URL+"/missing.csv", "")
	test.ErrNil(t, err, "getting opener")
	if _, err := csv.NewSource(o); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestNewOpenerS3(t *testing.T) {
	o, err := csv.NewOpener("s3://bucket/key.csv", "us-east-1")
	test.ErrNil(t, err, "getting s3 opener")
	test.MustBe(t, o.String(), "s3://bucket/key.csv", "opener name")

	if _, err := csv.NewOpener("s3://bucket", ""); err == nil {
		t.Fatal("expected error for s3 url without key")
	}
}
