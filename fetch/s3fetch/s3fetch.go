// Package s3fetch implements fetch.Fetcher with ranged S3 GetObject calls.
package s3fetch

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/katutoshi/zip-partial-loader/fetch"
)

// Options customises New.
type Options struct {
	// ModifyGetObjectInput can be used to modify the GetObject input parameters such as adding ExpectedBucketOwner.
	//
	// Its return value will be used to make the GetObject call.
	ModifyGetObjectInput func(*s3.GetObjectInput) *s3.GetObjectInput

	// ClientOptFns are passed to every GetObject call.
	ClientOptFns []func(*s3.Options)
}

// Fetcher implements fetch.Fetcher for a single S3 object.
type Fetcher struct {
	client               manager.DownloadAPIClient
	bucket, key          string
	modifyGetObjectInput func(*s3.GetObjectInput) *s3.GetObjectInput
	clientOptFns         []func(*s3.Options)
}

var _ fetch.Fetcher = (*Fetcher)(nil)

// New returns a Fetcher with the given bucket and key.
func New(client manager.DownloadAPIClient, bucket, key string, optFns ...func(*Options)) *Fetcher {
	opts := &Options{
		ModifyGetObjectInput: func(input *s3.GetObjectInput) *s3.GetObjectInput {
			return input
		},
	}
	for _, fn := range optFns {
		fn(opts)
	}

	return &Fetcher{
		client:               client,
		bucket:               bucket,
		key:                  key,
		modifyGetObjectInput: opts.ModifyGetObjectInput,
		clientOptFns:         opts.ClientOptFns,
	}
}

func (f *Fetcher) FetchRange(ctx context.Context, off, n int64) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}

	data, start, err := f.get(ctx, fetch.RangeHeader(off, n))
	if err != nil {
		return nil, err
	}

	if start != off {
		return nil, fmt.Errorf("%w: requested offset %d, got %d", fetch.ErrInvalidContentRange, off, start)
	}

	if err = fetch.CheckLen(data, off, n); err != nil {
		return nil, err
	}

	return data, nil
}

func (f *Fetcher) FetchTail(ctx context.Context, n int64) ([]byte, int64, error) {
	return f.get(ctx, fetch.SuffixRangeHeader(n))
}

func (f *Fetcher) get(ctx context.Context, rangeHeader string) ([]byte, int64, error) {
	getObjectOutput, err := f.client.GetObject(ctx, f.modifyGetObjectInput(&s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key),
		Range:  aws.String(rangeHeader),
	}), f.clientOptFns...)
	if err != nil {
		return nil, 0, fmt.Errorf("get s3://%s/%s %s error: %w", f.bucket, f.key, rangeHeader, err)
	}
	defer getObjectOutput.Body.Close()

	cr, err := fetch.ParseContentRange(aws.ToString(getObjectOutput.ContentRange))
	if err != nil {
		return nil, 0, err
	}

	data, err := io.ReadAll(getObjectOutput.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read body error: %w", err)
	}

	return data, cr.Start, nil
}
