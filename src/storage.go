//
// Copyright (c) 2026 Snowplow Analytics Ltd. All rights reserved.
//
// This program is licensed to you under the Apache License Version 2.0,
// and you may not use this file except in compliance with the Apache License Version 2.0.
// You may obtain a copy of the Apache License Version 2.0 at http://www.apache.org/licenses/LICENSE-2.0.
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the Apache License Version 2.0 is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the Apache License Version 2.0 for the specific language governing permissions and limitations there under.
//

package main

import (
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/google/uuid"
	"github.com/hashicorp/errwrap"
	log "github.com/sirupsen/logrus"
	retry "github.com/snowplow-devops/go-retry"
)

const s3Scheme = "s3://"

// Storage reads and writes whole files either on the local disk or in S3
type Storage struct {
	Downloader s3manageriface.DownloaderAPI
	Uploader   s3manageriface.UploaderAPI
	Attempts   int
	Sleep      time.Duration
}

// InitStorage creates a new Storage instance from the AWS settings
func InitStorage(conf *Config) (*Storage, error) {
	creds, err := GetCredentialsProvider(conf.AWS.AccessKeyID, conf.AWS.SecretAccessKey)
	if err != nil {
		return nil, err
	}

	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(conf.AWS.Region),
		Credentials: creds,
	})
	if err != nil {
		return nil, errwrap.Wrapf("Couldn't create AWS session: {{err}}", err)
	}
	s3Svc := s3.New(sess)

	return &Storage{
		Downloader: s3manager.NewDownloaderWithClient(s3Svc),
		Uploader:   s3manager.NewUploaderWithClient(s3Svc),
		Attempts:   conf.Retry.Attempts,
		Sleep:      time.Duration(conf.Retry.SleepMs) * time.Millisecond,
	}, nil
}

// IsS3Path checks whether or not a path points into S3
func IsS3Path(path string) bool {
	return strings.HasPrefix(path, s3Scheme)
}

// ParseS3Path splits an s3://bucket/key path
func ParseS3Path(path string) (string, string, error) {
	if !IsS3Path(path) {
		return "", "", errors.New(path + " is not an S3 path")
	}
	parts := strings.SplitN(strings.TrimPrefix(path, s3Scheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New("S3 path " + path + " needs a bucket and a key")
	}
	return parts[0], parts[1], nil
}

// JoinPath appends name to a local directory or an S3 prefix
func JoinPath(dir, name string) string {
	if IsS3Path(dir) {
		return strings.TrimSuffix(dir, "/") + "/" + name
	}
	return filepath.Join(dir, filepath.FromSlash(name))
}

// Read returns the content of the file at path
func (st Storage) Read(path string) ([]byte, error) {
	if !IsS3Path(path) {
		return ioutil.ReadFile(path)
	}
	bucket, key, err := ParseS3Path(path)
	if err != nil {
		return nil, err
	}
	if st.Downloader == nil {
		return nil, errors.New("S3 access is not configured")
	}

	var buf *aws.WriteAtBuffer
	err = retry.Exponential(st.attempts(), st.Sleep, "Download "+path, func() error {
		buf = aws.NewWriteAtBuffer([]byte{})
		params := &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)}
		_, err := st.Downloader.Download(buf, params)
		return err
	})
	if err != nil {
		return nil, errwrap.Wrapf("Couldn't download "+path+": {{err}}", err)
	}
	log.Debugf("Downloaded %d bytes from %s", len(buf.Bytes()), path)
	return buf.Bytes(), nil
}

// Write replaces the file at path with data. Local files are written next to their
// destination first and renamed into place so readers never see a partial file.
func (st Storage) Write(path string, data []byte) error {
	if !IsS3Path(path) {
		return writeLocalFile(path, data)
	}
	bucket, key, err := ParseS3Path(path)
	if err != nil {
		return err
	}
	if st.Uploader == nil {
		return errors.New("S3 access is not configured")
	}

	err = retry.Exponential(st.attempts(), st.Sleep, "Upload "+path, func() error {
		_, err := st.Uploader.Upload(&s3manager.UploadInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		})
		return err
	})
	if err != nil {
		return errwrap.Wrapf("Couldn't upload "+path+": {{err}}", err)
	}
	log.Debugf("Uploaded %d bytes to %s", len(data), path)
	return nil
}

func (st Storage) attempts() int {
	if st.Attempts < 1 {
		return 1
	}
	return st.Attempts
}

func writeLocalFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0775); err != nil {
		return err
	}
	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.New().String()+".tmp")
	if err := ioutil.WriteFile(tmp, data, 0664); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
