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
	"context"
	"encoding/csv"
	"io"

	"github.com/Shopify/sarama"
	tcsv "github.com/pilosa/tripclean/csv"
	"github.com/pkg/errors"
)

// Publisher sends the lines of a CSV input to a kafka topic partition, one
// message per line, header first.
type Publisher struct {
	Topic     string
	Partition int32

	producer sarama.SyncProducer
}

// NewPublisher gets a Publisher which sends with producer.
func NewPublisher(producer sarama.SyncProducer, topic string, partition int32) *Publisher {
	return &Publisher{Topic: topic, Partition: partition, producer: producer}
}

// NewProducer gets a SyncProducer for hosts which honors the partition set
// on each message.
func NewProducer(hosts []string) (sarama.SyncProducer, error) {
	conf := sarama.NewConfig()
	conf.Version = sarama.V0_10_0_0
	conf.Producer.Return.Successes = true
	conf.Producer.RequiredAcks = sarama.WaitForAll
	conf.Producer.Partitioner = sarama.NewManualPartitioner
	producer, err := sarama.NewSyncProducer(hosts, conf)
	return producer, errors.Wrap(err, "getting new producer")
}

// Publish sends every record read from r and returns how many messages were
// sent. Records are re-encoded as single CSV lines so that a Source reading
// the topic sees the same fields. A blank line is sent as an empty message.
func (p *Publisher) Publish(ctx context.Context, r io.Reader) (n int, err error) {
	cr := tcsv.NewLineReader(r)
	var buf bytes.Buffer
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		rec, err := cr.Read()
		if err == io.EOF {
			return n, nil
		} else if err != nil {
			return n, errors.Wrapf(err, "reading line %d", n+1)
		}
		buf.Reset()
		w := csv.NewWriter(&buf)
		if err := w.Write(rec); err != nil {
			return n, errors.Wrap(err, "encoding line")
		}
		w.Flush()
		val := bytes.TrimRight(buf.Bytes(), "\n")
		msg := &sarama.ProducerMessage{
			Topic:     p.Topic,
			Partition: p.Partition,
			Value:     sarama.ByteEncoder(append([]byte{}, val...)),
		}
		if _, _, err := p.producer.SendMessage(msg); err != nil {
			return n, errors.Wrapf(err, "sending line %d", n+1)
		}
		n++
	}
}
