package s3

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/trieidx/internal/hash"
)

// DefaultPartSize is the multipart part size and the single-request threshold.
const DefaultPartSize = 8 << 20

type uploadOptions struct {
	partSize    int64
	concurrency int
	checksum    bool
}

func defaultUploadOptions() uploadOptions {
	return uploadOptions{partSize: DefaultPartSize, concurrency: 5, checksum: true}
}

// WithPartSize sets the multipart part size. Blobs below it are uploaded in
// one request. Values below the S3 minimum of 5 MiB only move the threshold.
func WithPartSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.upload.partSize = n
		}
	}
}

// WithConcurrency sets the number of parts uploaded in parallel.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.upload.concurrency = n
		}
	}
}

// WithoutChecksum disables CRC32C validation of uploads.
func WithoutChecksum() Option {
	return func(o *options) { o.upload.checksum = false }
}

func newUploader(client Client, o uploadOptions) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = max(o.partSize, manager.MinUploadPartSize)
		u.Concurrency = o.concurrency
	})
}

func (s *Store) upload(ctx context.Context, key string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}

	if int64(len(data)) >= s.uploadOpts.partSize {
		if s.uploadOpts.checksum {
			input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
		}
		_, err := s.uploader.Upload(ctx, input)
		return err
	}

	input.ContentLength = aws.Int64(int64(len(data)))
	if s.uploadOpts.checksum {
		input.ChecksumCRC32C = aws.String(hash.CRC32CBase64(data))
	}
	_, err := s.client.PutObject(ctx, input)
	return err
}
