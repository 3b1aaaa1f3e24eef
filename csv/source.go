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
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/pilosa/tripclean"
	"github.com/pilosa/tripclean/aws/s3"
	"github.com/pkg/errors"
)

// Opener is an interface to a resource which can be Opened (and the
// returned ReadCloser subsequently read).
type Opener interface {
	Open() (io.ReadCloser, error)
}

// OpenStringer is an Opener which also has a String method which should return
// the name of the resource being opened (e.g. a file or URL).
type OpenStringer interface {
	fmt.Stringer
	Opener
}

// urlOpener turns a URL or file (string) into an OpenStringer.
type urlOpener string

func (u urlOpener) Open() (io.ReadCloser, error) {
	url := string(u)
	if strings.HasPrefix(url, "http") {
		resp, err := http.Get(url)
		if err != nil {
			return nil, errors.Wrap(err, "getting via http")
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, errors.Errorf("getting via http: %s", resp.Status)
		}
		return resp.Body, nil
	}
	f, err := os.Open(url)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	return f, nil
}

func (u urlOpener) String() string {
	return string(u)
}

// NewOpener gets an OpenStringer for name, which may be a local file, an
// http(s) URL or an s3://bucket/key URL. region is only used for S3.
func NewOpener(name, region string) (OpenStringer, error) {
	if s3.IsURL(name) {
		o, err := s3.ParseURL(name, region)
		if err != nil {
			return nil, err
		}
		return o, nil
	}
	return urlOpener(name), nil
}

// Source satisfies tripclean.Source for comma separated text. The first
// line is the header and is never returned by Record. Records are returned
// with however many fields they have, so that the field count can be
// validated downstream; a blank line is a record with no fields.
type Source struct {
	name   string
	rc     io.ReadCloser
	r      *LineReader
	header []string
}

var _ tripclean.Source = &Source{}

// NewSource opens o and consumes the header record.
func NewSource(o OpenStringer) (*Source, error) {
	rc, err := o.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", o)
	}
	s := &Source{
		name: o.String(),
		rc:   rc,
		r:    NewLineReader(rc),
	}

	s.header, err = s.r.Read()
	if err == io.EOF {
		rc.Close()
		return nil, errors.Errorf("%s has no header", s.name)
	} else if err != nil {
		rc.Close()
		return nil, errors.Wrapf(err, "reading header of %s", s.name)
	}
	return s, nil
}

// Header returns the fields of the consumed header record.
func (s *Source) Header() []string {
	return s.header
}

// Record implements tripclean.Source. Unreadable input, including text
// that is not valid UTF-8, is returned as an error rather than as a record.
func (s *Source) Record() (tripclean.RawRecord, error) {
	row, err := s.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	} else if err != nil {
		return nil, errors.Wrapf(err, "reading %s", s.name)
	}
	for i, f := range row {
		if !utf8.ValidString(f) {
			line, _ := s.r.FieldPos(i)
			return nil, errors.Errorf("reading %s: line %d: field %d is not valid UTF-8", s.name, line, i)
		}
	}
	return tripclean.RawRecord(row), nil
}

// Close closes the underlying file or connection.
func (s *Source) Close() error {
	return s.rc.Close()
}
