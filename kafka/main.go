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
	"context"
	"log"

	"github.com/pilosa/tripclean/csv"
	"github.com/pkg/errors"
)

// Main holds the options for publishing a trip CSV file to Kafka.
type Main struct {
	Input     string   `help:"Path, http(s) URL or s3:// URL of the trip CSV file to publish."`
	Region    string   `help:"AWS region used for s3:// inputs."`
	Hosts     []string `help:"Comma separated list of Kafka hosts and ports."`
	Topic     string   `help:"Kafka topic to publish to."`
	Partition int      `help:"Topic partition to publish to."`
	Config    string   `help:"Path to a TOML configuration file."`
}

// NewMain returns a new Main.
func NewMain() *Main {
	return &Main{
		Input:  "trips.csv",
		Region: "us-east-1",
		Hosts:  []string{"localhost:9092"},
		Topic:  "trips",
	}
}

// Run publishes every line of the input, header first.
func (m *Main) Run() error {
	o, err := csv.NewOpener(m.Input, m.Region)
	if err != nil {
		return errors.Wrap(err, "getting opener")
	}
	r, err := o.Open()
	if err != nil {
		return errors.Wrapf(err, "opening %s", o)
	}
	defer r.Close()

	producer, err := NewProducer(m.Hosts)
	if err != nil {
		return err
	}
	defer producer.Close()

	n, err := NewPublisher(producer, m.Topic, int32(m.Partition)).Publish(context.Background(), r)
	log.Printf("published %d lines from %s to %s/%d", n, o, m.Topic, m.Partition)
	return errors.Wrap(err, "publishing")
}
