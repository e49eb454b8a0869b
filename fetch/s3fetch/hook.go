package s3fetch

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"
)

// HookClient provides pre- and post- hooks on GetObject.
//
// Both hooks may be called from any goroutine that fetches ranges in parallel.
type HookClient struct {
	manager.DownloadAPIClient
	PreGetObject  func(context.Context, *s3.GetObjectInput, ...func(*s3.Options))
	PostGetObject func(*s3.GetObjectInput, *s3.GetObjectOutput, error)
}

// WrapClient wraps the specified manager.DownloadAPIClient as a HookClient.
func WrapClient(client manager.DownloadAPIClient, optFns ...func(*HookClient)) *HookClient {
	w := &HookClient{DownloadAPIClient: client}
	for _, fn := range optFns {
		fn(w)
	}

	return w
}

// LogGetObject creates a HookClient.PostGetObject that logs every GetObject call.
//
// The logger keeps a running tally of the successful calls, and the log messages will be in this format:
// `got bytes=0-99 (100 B), 1 requests so far`.
func LogGetObject(logger *log.Logger) func(*HookClient) {
	return func(client *HookClient) {
		var n atomic.Int32
		client.PostGetObject = func(input *s3.GetObjectInput, output *s3.GetObjectOutput, err error) {
			if err != nil {
				logger.Printf("get %s error: %v", aws.ToString(input.Range), err)
				return
			}

			logger.Printf("got %s (%s), %d requests so far",
				aws.ToString(input.Range),
				humanize.IBytes(uint64(aws.ToInt64(output.ContentLength))),
				n.Add(1))
		}
	}
}

func (l HookClient) GetObject(ctx context.Context, input *s3.GetObjectInput, f ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if l.PreGetObject != nil {
		l.PreGetObject(ctx, input, f...)
	}
	o, err := l.DownloadAPIClient.GetObject(ctx, input, f...)
	if l.PostGetObject != nil {
		l.PostGetObject(input, o, err)
	}
	return o, err
}

var _ manager.DownloadAPIClient = HookClient{}
var _ manager.DownloadAPIClient = &HookClient{}
