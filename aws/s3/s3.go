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

// Package s3 opens trip input files stored in Amazon S3.
package s3

import (
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
)

// Scheme is the URL scheme of S3 object URLs, e.g. s3://bucket/path/train.csv.
const Scheme = "s3"

// Opener opens a single S3 object. Each call to Open fetches the object
// from the beginning.
type Opener struct {
	Region string
	Bucket string
	Key    string

	client *s3.S3
}

// ParseURL gets an Opener for an s3://bucket/key URL.
func ParseURL(rawurl string, region string) (*Opener, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing '%s'", rawurl)
	}
	if u.Scheme != Scheme {
		return nil, errors.Errorf("'%s' is not an %s:// URL", rawurl, Scheme)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return nil, errors.Errorf("'%s' needs both a bucket and a key", rawurl)
	}
	return &Opener{
		Region: region,
		Bucket: u.Host,
		Key:    key,
	}, nil
}

// IsURL reports whether name should be opened from S3.
func IsURL(name string) bool {
	return strings.HasPrefix(name, Scheme+"://")
}

func (o *Opener) String() string {
	return Scheme + "://" + o.Bucket + "/" + o.Key
}

// Open implements csv.Opener.
func (o *Opener) Open() (io.ReadCloser, error) {
	if o.client == nil {
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(o.Region)},
		)
		if err != nil {
			return nil, errors.Wrap(err, "getting new session")
		}
		o.client = s3.New(sess)
	}
	result, err := o.client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(o.Bucket),
		Key:    aws.String(o.Key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %v", o)
	}
	return result.Body, nil
}
