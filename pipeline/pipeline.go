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

// Package pipeline validates raw trip records, derives the computed trip
// fields, and routes each record either to a TripStore or to a
// RejectionSink.
package pipeline

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pilosa/tripclean"
	"github.com/pkg/errors"
)

// Pipeline reads every record from a Source and resolves it, one at a time,
// into either exactly one stored Trip or exactly one Rejection. A Pipeline
// must not be Run concurrently.
type Pipeline struct {
	src   tripclean.Source
	store tripclean.TripStore
	sink  tripclean.RejectionSink
	seq   *tripclean.Nexter

	stats tripclean.Statter
	log   tripclean.Logger

	// ProgressEvery controls how often (in records) progress is logged.
	ProgressEvery uint64
}

// Option configures a Pipeline.
type Option func(p *Pipeline)

// OptStatter sets the Statter that receives per-record stats: counts of
// read, accepted and rejected records, the row position as a gauge, the
// time spent on each record, and the distance, speed and vendor of every
// accepted trip.
func OptStatter(s tripclean.Statter) Option {
	return func(p *Pipeline) {
		p.stats = s
	}
}

// OptLogger sets the Logger.
func OptLogger(l tripclean.Logger) Option {
	return func(p *Pipeline) {
		p.log = l
	}
}

// OptFirstRow sets the sequence position of the first record. It defaults
// to 1, the first line after the header.
func OptFirstRow(row uint64) Option {
	return func(p *Pipeline) {
		p.seq = tripclean.NewNexter(row)
	}
}

// New gets a Pipeline. The store's schema must already exist.
func New(src tripclean.Source, store tripclean.TripStore, sink tripclean.RejectionSink, opts ...Option) *Pipeline {
	p := &Pipeline{
		src:           src,
		store:         store,
		sink:          sink,
		seq:           tripclean.NewNexter(1),
		stats:         tripclean.NopStatter{},
		log:           tripclean.NopLogger{},
		ProgressEvery: 100000,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Summary counts what happened to the records of one run.
type Summary struct {
	Read     uint64
	Accepted uint64
	Rejected map[tripclean.Reason]uint64
}

// TotalRejected is the number of rejected records over all reasons.
func (s Summary) TotalRejected() uint64 {
	var n uint64
	for _, c := range s.Rejected {
		n += c
	}
	return n
}

// Run processes records until the source is exhausted, a fatal error
// occurs, or ctx is done. Records resolved before a failure stay resolved,
// so a run can be repeated safely: already stored trips are rejected as
// duplicates the second time.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	sum := Summary{Rejected: make(map[tripclean.Reason]uint64)}
	for {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}
		rec, err := p.src.Record()
		if err == io.EOF {
			return sum, nil
		} else if err != nil {
			return sum, errors.Wrap(err, "reading record")
		}
		sum.Read++
		reason, err := p.process(rec)
		if err != nil {
			return sum, errors.Wrapf(err, "processing row %d", p.seq.Last())
		}
		if reason == tripclean.ReasonNone {
			sum.Accepted++
		} else {
			sum.Rejected[reason]++
		}
		if p.ProgressEvery > 0 && sum.Read%p.ProgressEvery == 0 {
			p.log.Printf("processed %d records: %d accepted, %d rejected", sum.Read, sum.Accepted, sum.TotalRejected())
		}
	}
}

// process resolves a single record. A non-nil error means the run must
// stop; otherwise the returned reason is ReasonNone if the trip was stored.
func (p *Pipeline) process(rec tripclean.RawRecord) (reason tripclean.Reason, err error) {
	start := time.Now()
	st := &state{raw: rec, store: p.store, row: p.seq.Next()}
	p.stats.Count("trips.read", 1, 1)
	p.stats.Gauge("trips.row", float64(st.row), 1)
	defer func() {
		p.stats.Timing("trips.process", time.Since(start), 1)
	}()
	defer func() {
		if st.tx == nil {
			return
		}
		// st.tx is still set after a failed commit, which is rolled back
		// like any other failure.
		if err != nil || reason != tripclean.ReasonNone {
			if rerr := st.tx.Rollback(); rerr != nil && err == nil {
				err = errors.Wrap(rerr, "rolling back")
			}
		}
	}()

	for _, check := range checks {
		reason, err = check(st)
		if err != nil {
			return reason, err
		}
		if reason != tripclean.ReasonNone {
			return reason, p.reject(st, reason)
		}
	}

	derive(&st.trip)
	if err := st.tx.Insert(&st.trip); err != nil {
		if errors.Cause(err) == tripclean.ErrDuplicateTrip {
			return reason, errors.Wrapf(err, "trip %s stored concurrently after duplicate check", st.trip.TripID)
		}
		return reason, errors.Wrap(err, "inserting trip")
	}
	if err := st.tx.Commit(); err != nil {
		return reason, errors.Wrap(err, "committing trip")
	}
	st.tx = nil
	p.stats.Count("trips.accepted", 1, 1)
	p.stats.Histogram("trips.distance", st.trip.Distance, 1)
	p.stats.Histogram("trips.speed", st.trip.TripSpeed, 1)
	p.stats.Set("trips.vendor", strconv.Itoa(st.trip.VendorID), 1)
	return tripclean.ReasonNone, nil
}

func (p *Pipeline) reject(st *state, reason tripclean.Reason) error {
	r := tripclean.Rejection{
		Row:    st.row,
		Reason: reason,
		Raw:    st.raw.Join(),
	}
	if reason != tripclean.ReasonWrongFieldCount {
		r.TripID = st.raw[tripclean.TripID]
	}
	p.stats.Count("trips.rejected", 1, 1)
	p.stats.Count("trips.rejected."+strings.Replace(string(reason), " ", "_", -1), 1, 1)
	if st.detail != nil {
		p.log.Debugf("row %d rejected as %s: %v", st.row, reason, st.detail)
	} else {
		p.log.Debugf("row %d rejected as %s", st.row, reason)
	}
	return errors.Wrap(p.sink.Reject(r), "writing rejection")
}
