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

package s3

import (
	"testing"
)

func TestParseURL(t *testing.T) {
	o, err := ParseURL("s3://nyc-tlc/trip-data/train.csv", "us-east-1")
	if err != nil {
		t.Fatalf("parsing url: %v", err)
	}
	if o.Bucket != "nyc-tlc" {
		t.Fatalf("wrong bucket name: %s", o.Bucket)
	}
	if o.Key != "trip-data/train.csv" {
		t.Fatalf("wrong key: %s", o.Key)
	}
	if o.Region != "us-east-1" {
		t.Fatalf("wrong region name: %s", o.Region)
	}
	if o.String() != "s3://nyc-tlc/trip-data/train.csv" {
		t.Fatalf("unexpected string: %s", o)
	}
}

func TestParseURLErrors(t *testing.T) {
	for _, u := range []string{
		"http://nyc-tlc/train.csv",
		"s3://nyc-tlc",
		"s3://nyc-tlc/",
		"s3:///train.csv",
		"train.csv",
	} {
		if _, err := ParseURL(u, ""); err == nil {
			t.Errorf("expected error parsing '%s'", u)
		}
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("s3://b/k") {
		t.Fatal("s3 url not recognized")
	}
	if IsURL("train.csv") || IsURL("https://example.com/s3://x") {
		t.Fatal("non s3 url recognized")
	}
}
