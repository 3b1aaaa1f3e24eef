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

package csv

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pilosa/tripclean"
	"github.com/pkg/errors"
)

// RejectionHeader is the first line of every exclusion log.
var RejectionHeader = []string{"row_num", "trip_id", "reason", "raw_row"}

// RejectionLog is a tripclean.RejectionSink writing comma separated text.
// It only ever appends, so several runs can share one log.
type RejectionLog struct {
	f *os.File
	w *csv.Writer
}

var _ tripclean.RejectionSink = &RejectionLog{}

// OpenRejectionLog opens the log at path for appending, creating it with
// the header line if it doesn't exist or is empty.
func OpenRejectionLog(path string) (*RejectionLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "opening rejection log")
	}
	l := &RejectionLog{
		f: f,
		w: csv.NewWriter(f),
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "getting rejection log size")
	}
	if stat.Size() == 0 {
		if err := l.write(RejectionHeader); err != nil {
			f.Close()
			return nil, errors.Wrap(err, "writing rejection log header")
		}
	}
	return l, nil
}

// Reject implements tripclean.RejectionSink. Each rejection is flushed to
// the file before Reject returns.
func (l *RejectionLog) Reject(r tripclean.Rejection) error {
	return l.write([]string{
		strconv.FormatUint(r.Row, 10),
		r.TripID,
		string(r.Reason),
		r.Raw,
	})
}

func (l *RejectionLog) write(rec []string) error {
	if err := l.w.Write(rec); err != nil {
		return errors.Wrap(err, "writing record")
	}
	l.w.Flush()
	return errors.Wrap(l.w.Error(), "flushing")
}

// Close flushes and closes the log file.
func (l *RejectionLog) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.f.Close()
		return errors.Wrap(err, "flushing")
	}
	return l.f.Close()
}
