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
	"io"
	"strings"
)

// LineReader reads comma separated records like encoding/csv, except that
// a blank line is returned as a record with no fields instead of being
// skipped, so every line of input is accounted for.
type LineReader struct {
	r       *csv.Reader
	lines   *lineCounter
	next    int // line the next record is expected to start on
	pending int // blank lines to return before held
	held    []string
	eof     bool
}

// NewLineReader gets a LineReader over r. Records may have any number of
// fields and bare quotes are tolerated.
func NewLineReader(r io.Reader) *LineReader {
	lc := &lineCounter{r: r}
	cr := csv.NewReader(lc)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return &LineReader{r: cr, lines: lc, next: 1}
}

// Read returns the next record. It returns io.EOF once every line,
// including trailing blank ones, has been returned.
func (l *LineReader) Read() ([]string, error) {
	if l.pending > 0 {
		l.pending--
		return []string{}, nil
	}
	if l.held != nil {
		rec := l.held
		l.held = nil
		return rec, nil
	}
	if l.eof {
		return nil, io.EOF
	}
	rec, err := l.r.Read()
	if err == io.EOF {
		l.eof = true
		l.pending = l.lines.total() - (l.next - 1)
		return l.Read()
	} else if err != nil {
		return nil, err
	}
	start, _ := l.r.FieldPos(0)
	last := len(rec) - 1
	end, _ := l.r.FieldPos(last)
	end += strings.Count(rec[last], "\n")
	l.pending = start - l.next
	l.next = end + 1
	l.held = rec
	return l.Read()
}

// FieldPos returns the line and column of field i of the record most
// recently read from the underlying reader.
func (l *LineReader) FieldPos(i int) (line, column int) {
	return l.r.FieldPos(i)
}

// lineCounter counts the lines passing through it. A final line without a
// terminating newline still counts.
type lineCounter struct {
	r        io.Reader
	newlines int
	read     bool
	last     byte
}

func (c *lineCounter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.newlines += strings.Count(string(p[:n]), "\n")
		c.read = true
		c.last = p[n-1]
	}
	return n, err
}

func (c *lineCounter) total() int {
	if c.read && c.last != '\n' {
		return c.newlines + 1
	}
	return c.newlines
}
