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

// Package ingest runs a whole validation pass: it reads raw trip records
// from a CSV file or a kafka topic, stores the valid trips and logs the
// rest.
package ingest

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pilosa/tripclean"
	"github.com/pilosa/tripclean/csv"
	"github.com/pilosa/tripclean/kafka"
	"github.com/pilosa/tripclean/pipeline"
	"github.com/pilosa/tripclean/termstat"
	"github.com/pkg/errors"
)

// Main holds the options for an ingest run.
type Main struct {
	Input      string   `help:"Path, http(s) URL or s3:// URL of the trip CSV file."`
	Region     string   `help:"AWS region used for s3:// inputs."`
	Source     string   `help:"Where raw records come from: csv or kafka."`
	KafkaHosts []string `help:"Comma separated list of Kafka hosts and ports."`
	Topic      string   `help:"Kafka topic holding one CSV line per message, header first."`
	Partition  int      `help:"Kafka topic partition to consume."`
	MaxMsgs    int      `help:"Stop after this many Kafka records. 0 means no limit."`
	KafkaIdle  int      `help:"Seconds without a Kafka message after which the input ends. 0 waits forever."`
	Store      string   `help:"Trip store backend: sqlite, bolt or leveldb."`
	DB         string   `help:"Path of the trip store."`
	Rejections string   `help:"Path of the exclusion log. It is appended to."`
	FirstRow   uint64   `help:"Sequence position of the first record after the header."`
	Progress   bool     `help:"Print running counts to stderr."`
	Verbose    bool     `help:"Log every rejection."`
	Config     string   `help:"Path to a TOML configuration file."`
}

// NewMain returns a new Main.
func NewMain() *Main {
	return &Main{
		Input:      "trips.csv",
		Region:     "us-east-1",
		Source:     "csv",
		KafkaHosts: []string{"localhost:9092"},
		Topic:      "trips",
		KafkaIdle:  10,
		Store:      "sqlite",
		DB:         "trips.db",
		Rejections: "rejections.csv",
		FirstRow:   1,
	}
}

// Run ingests the input, logging to stderr.
func (m *Main) Run() error {
	var logger tripclean.Logger = tripclean.StdLogger{Logger: log.New(os.Stderr, "", log.LstdFlags)}
	if m.Verbose {
		logger = tripclean.VerboseLogger{Logger: log.New(os.Stderr, "", log.LstdFlags)}
	}
	_, err := m.Ingest(context.Background(), logger)
	return err
}

type sourceCloser interface {
	tripclean.Source
	Close() error
}

func (m *Main) openSource() (sourceCloser, error) {
	switch m.Source {
	case "csv":
		o, err := csv.NewOpener(m.Input, m.Region)
		if err != nil {
			return nil, errors.Wrap(err, "getting opener")
		}
		src, err := csv.NewSource(o)
		if err != nil {
			return nil, errors.Wrap(err, "opening csv source")
		}
		return src, nil
	case "kafka":
		src := kafka.NewSource()
		src.Hosts = m.KafkaHosts
		src.Topic = m.Topic
		src.Partition = int32(m.Partition)
		src.MaxMsgs = m.MaxMsgs
		src.Timeout = time.Duration(m.KafkaIdle) * time.Second
		if err := src.Open(); err != nil {
			return nil, errors.Wrap(err, "opening kafka source")
		}
		return src, nil
	default:
		return nil, errors.Errorf("unknown source '%s'", m.Source)
	}
}

// Ingest runs the pipeline once over the input and returns what happened
// to its records. The store, exclusion log and source are closed before it
// returns, whatever the outcome.
func (m *Main) Ingest(ctx context.Context, logger tripclean.Logger) (sum pipeline.Summary, err error) {
	runID := uuid.New().String()
	logger.Printf("run %s: ingesting %s input '%s' into %s store '%s'", runID, m.Source, m.Input, m.Store, m.DB)

	store, err := OpenStore(m.Store, m.DB)
	if err != nil {
		return sum, err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing store")
		}
	}()
	if err := store.EnsureSchema(); err != nil {
		return sum, errors.Wrap(err, "ensuring schema")
	}

	sink, err := csv.OpenRejectionLog(m.Rejections)
	if err != nil {
		return sum, err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing exclusion log")
		}
	}()

	src, err := m.openSource()
	if err != nil {
		return sum, err
	}
	defer src.Close()

	opts := []pipeline.Option{pipeline.OptLogger(logger), pipeline.OptFirstRow(m.FirstRow)}
	if m.Progress {
		stats := termstat.NewCollector(os.Stderr, 2*time.Second)
		defer stats.Close()
		opts = append(opts, pipeline.OptStatter(stats))
	}

	start := time.Now()
	sum, err = pipeline.New(src, store, sink, opts...).Run(ctx)
	logger.Printf("run %s: read %d, accepted %d, rejected %d in %v", runID, sum.Read, sum.Accepted, sum.TotalRejected(), time.Since(start))
	for _, reason := range tripclean.Reasons {
		if n := sum.Rejected[reason]; n > 0 {
			logger.Printf("run %s: %d rejected as %s", runID, n, reason)
		}
	}
	return sum, errors.Wrap(err, "running pipeline")
}
