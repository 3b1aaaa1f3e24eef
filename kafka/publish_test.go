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
	"strings"
	"testing"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/pilosa/tripclean/test"
	"github.com/pkg/errors"
)

func producerConfig() *sarama.Config {
	conf := sarama.NewConfig()
	conf.Producer.Return.Successes = true
	return conf
}

func TestPublish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, producerConfig())
	exp := []string{header, "id1,2,x", "", `id2,"a,b",y`, ""}
	for _, line := range exp {
		line := line
		producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
			if string(val) != line {
				return errors.Errorf("sent %q, expected %q", val, line)
			}
			return nil
		})
	}
	input := strings.Join(exp, "\n") + "\n"
	n, err := NewPublisher(producer, "trips", 0).Publish(context.Background(), strings.NewReader(input))
	test.ErrNil(t, err, "publishing")
	test.MustBe(t, n, 5, "messages sent")
	test.ErrNil(t, producer.Close(), "closing producer")
}

func TestPublishSendError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, producerConfig())
	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndFail(errors.New("no leader"))
	n, err := NewPublisher(producer, "trips", 0).Publish(context.Background(), strings.NewReader("a\nb\nc\n"))
	if err == nil {
		t.Fatal("expected send error")
	}
	test.MustBe(t, n, 1, "messages sent before failure")
	test.ErrNil(t, producer.Close(), "closing producer")
}

func TestPublishCanceled(t *testing.T) {
	producer := mocks.NewSyncProducer(t, producerConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := NewPublisher(producer, "trips", 0).Publish(ctx, strings.NewReader("a\n"))
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	test.MustBe(t, n, 0, "messages sent")
	test.ErrNil(t, producer.Close(), "closing producer")
}
