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

// Reason classifies why a raw record was rejected.
type Reason string

// The fixed set of rejection reasons. The string values are what appears in
// the exclusion log.
const (
	ReasonNone            Reason = ""
	ReasonWrongFieldCount Reason = "wrong field count"
	ReasonDuplicate       Reason = "duplicate"
	ReasonInvalidData     Reason = "invalid data"
	ReasonAnomalousData   Reason = "anomalous data"
)

// Reasons lists every rejection reason in the order the checks run.
var Reasons = []Reason{
	ReasonWrongFieldCount,
	ReasonDuplicate,
	ReasonInvalidData,
	ReasonAnomalousData,
}

// Rejection is one entry of the exclusion log.
type Rejection struct {
	Row    uint64
	TripID string
	Reason Reason
	Raw    string
}

// RejectionSink is an append only log of rejected records. Implementations
// create the log, with its header, when they are opened.
type RejectionSink interface {
	Reject(r Rejection) error
	Close() error
}
