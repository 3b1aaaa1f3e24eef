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
	"io"

	"github.com/pilosa/tripclean"
)

// Source hands out a fixed slice of records.
type Source struct {
	Records []tripclean.RawRecord
	// Err, if set, is returned once Records are exhausted instead of io.EOF.
	Err error

	next int
}

// NewSource gets a Source over recs.
func NewSource(recs ...tripclean.RawRecord) *Source {
	return &Source{Records: recs}
}

// Record implements tripclean.Source.
func (s *Source) Record() (tripclean.RawRecord, error) {
	if s.next >= len(s.Records) {
		if s.Err != nil {
			return nil, s.Err
		}
		return nil, io.EOF
	}
	rec := s.Records[s.next]
	s.next++
	return rec, nil
}

// RejectionSink keeps every rejection in memory.
type RejectionSink struct {
	Rejections []tripclean.Rejection
	Closed     bool
	// Err, if set, is returned by Reject.
	Err error
}

// Reject implements tripclean.RejectionSink.
func (s *RejectionSink) Reject(r tripclean.Rejection) error {
	if s.Err != nil {
		return s.Err
	}
	s.Rejections = append(s.Rejections, r)
	return nil
}

// Close implements tripclean.RejectionSink.
func (s *RejectionSink) Close() error {
	s.Closed = true
	return nil
}

// Reasons returns the reason of each rejection in order.
func (s *RejectionSink) Reasons() []tripclean.Reason {
	ret := make([]tripclean.Reason, len(s.Rejections))
	for i, r := range s.Rejections {
		ret[i] = r.Reason
	}
	return ret
}
