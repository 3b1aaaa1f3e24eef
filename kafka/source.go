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

package kafka

import (
	"bytes"
	"encoding/csv"
	"io"
	"io/ioutil"
	"log"
	"time"

	"github.com/Shopify/sarama"
	"github.com/pilosa/tripclean"
	"github.com/pkg/errors"
)

var _ tripclean.Source = &Source{}

// Source implements tripclean.Source by consuming a single partition of a
// kafka topic. Each message value is one CSV line, and an empty message is
// a blank line. The first message is the header and is not returned as a
// record.
type Source struct {
	Hosts     []string
	Topic     string
	Partition int32
	// MaxMsgs, when positive, bounds the number of records returned.
	MaxMsgs int
	// Timeout, when positive, ends the input if no message arrives for
	// that long.
	Timeout time.Duration

	numMsgs   int
	header    tripclean.RawRecord
	gotHeader bool
	consumer  sarama.Consumer
	pc        sarama.PartitionConsumer
}

// NewSource gets a new Source with default settings.
func NewSource() *Source {
	return &Source{
		Hosts: []string{"localhost:9092"},
		Topic: "trips",
	}
}

// Open connects to kafka and starts consuming from the oldest offset.
func (s *Source) Open() error {
	sarama.Logger = log.New(ioutil.Discard, "", 0)
	conf := sarama.NewConfig()
	conf.Version = sarama.V0_10_0_0
	conf.Consumer.Return.Errors = true
	consumer, err := sarama.NewConsumer(s.Hosts, conf)
	if err != nil {
		return errors.Wrap(err, "getting new consumer")
	}
	return s.OpenConsumer(consumer)
}

// OpenConsumer starts consuming from the oldest offset of the configured
// partition using an existing consumer, which the Source takes ownership
// of.
func (s *Source) OpenConsumer(consumer sarama.Consumer) error {
	pc, err := consumer.ConsumePartition(s.Topic, s.Partition, sarama.OffsetOldest)
	if err != nil {
		consumer.Close()
		return errors.Wrapf(err, "consuming %s/%d", s.Topic, s.Partition)
	}
	s.consumer, s.pc = consumer, pc
	return nil
}

// Header returns the header line, once it has been read.
func (s *Source) Header() tripclean.RawRecord {
	return s.header
}

// Record implements tripclean.Source.
func (s *Source) Record() (tripclean.RawRecord, error) {
	if s.pc == nil {
		return nil, errors.New("kafka source not opened")
	}
	for {
		if s.MaxMsgs > 0 && s.numMsgs >= s.MaxMsgs {
			return nil, io.EOF
		}
		msg, err := s.next()
		if err != nil {
			return nil, err
		}
		rec, err := parseLine(msg.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing message at offset %d", msg.Offset)
		}
		if !s.gotHeader {
			s.header, s.gotHeader = rec, true
			continue
		}
		s.numMsgs++
		return rec, nil
	}
}

func (s *Source) next() (*sarama.ConsumerMessage, error) {
	var timeout <-chan time.Time
	if s.Timeout > 0 {
		t := time.NewTimer(s.Timeout)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case msg, ok := <-s.pc.Messages():
		if !ok {
			return nil, errors.New("messages channel closed")
		}
		return msg, nil
	case cerr, ok := <-s.pc.Errors():
		if !ok {
			return nil, errors.New("errors channel closed")
		}
		return nil, errors.Wrap(cerr, "consuming")
	case <-timeout:
		return nil, io.EOF
	}
}

// parseLine parses one message as a CSV line. An empty message is a
// record with no fields.
func parseLine(line []byte) (tripclean.RawRecord, error) {
	r := csv.NewReader(bytes.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rec, err := r.Read()
	if err == io.EOF {
		return tripclean.RawRecord{}, nil
	} else if err != nil {
		return nil, err
	}
	return tripclean.RawRecord(rec), nil
}

// Close closes the partition consumer and the underlying consumer.
func (s *Source) Close() error {
	if s.pc == nil {
		return nil
	}
	err := s.pc.Close()
	if cerr := s.consumer.Close(); err == nil {
		err = cerr
	}
	s.pc, s.consumer = nil, nil
	return errors.Wrap(err, "closing kafka consumer")
}
