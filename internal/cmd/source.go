package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hashicorp/go-multierror"
	partialzip "github.com/katutoshi/zip-partial-loader"
	"github.com/katutoshi/zip-partial-loader/codec"
	"github.com/katutoshi/zip-partial-loader/fetch"
	"github.com/katutoshi/zip-partial-loader/fetch/httpfetch"
	"github.com/katutoshi/zip-partial-loader/fetch/s3fetch"
	"github.com/katutoshi/zip-partial-loader/internal"
	"github.com/katutoshi/zip-partial-loader/internal/config"
	"github.com/katutoshi/zip-partial-loader/zip/lazy"
)

// base is embedded by every command to share the global options and the source resolution.
type base struct {
	global         *Global
	loader         *config.Loader
	stdout, stderr io.Writer
	logger         *log.Logger
}

func (b *base) bind(g *Global, stdout, stderr io.Writer) {
	b.global, b.stdout, b.stderr = g, stdout, stderr
}

// setup loads the configuration file and fills in defaults for anything bind did not set.
func (b *base) setup(ctx context.Context) error {
	if b.global == nil {
		b.global = &Global{}
	}
	if b.stdout == nil {
		b.stdout = io.Discard
	}
	if b.stderr == nil {
		b.stderr = io.Discard
	}
	b.logger = log.New(b.stderr, "", log.LstdFlags)

	b.loader = config.NewLoader()
	b.loader.Profile = b.global.Profile

	if name := string(b.global.Config); name != "" {
		return b.loader.LoadFile(name)
	}

	name, err := b.loader.Load(ctx)
	if err != nil {
		return err
	}
	if name != "" && b.global.Verbose {
		b.logger.Printf("using config file %s", name)
	}

	return nil
}

// archive is an opened partialzip.Reader along with everything that must be released after use.
type archive struct {
	*partialzip.Reader
	source  string
	closers []func() error
}

// Close runs the closers in reverse order.
func (a *archive) Close() error {
	var errs *multierror.Error
	for _, fn := range slices.Backward(a.closers) {
		if err := fn(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	return errs.ErrorOrNil()
}

// open resolves source into a fetch.Fetcher then opens the archive behind it.
//
// concurrency overrides the [fetch] concurrency setting if positive.
func (b *base) open(ctx context.Context, source string, concurrency int) (*archive, error) {
	a := &archive{source: source}

	f, err := b.fetcher(ctx, a, source)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	fc := b.loader.ForFetch()
	if n := firstPositive(b.global.MaxBytesPerSecond, fc.MaxBytesInSecond); n > 0 {
		if f, err = fetch.RateLimit(f, n); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	if f, err = fetch.Cache(f, firstPositive(b.global.CacheSize, fc.CacheSize)); err != nil {
		_ = a.Close()
		return nil, err
	}

	if b.global.Verbose {
		lf := fetch.WithLogger(f, b.logger, 5*time.Second)
		a.closers = append(a.closers, lf.Close)
		f = lf
	}

	a.Reader, err = partialzip.Open(ctx, f, func(opts *partialzip.Options) {
		opts.Concurrency = firstPositive(concurrency, fc.Concurrency, partialzip.DefaultConcurrency)
		opts.Logger = b.logger
		opts.ArchiveOptions = b.archiveOptions()
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("open %s error: %w", source, err)
	}

	return a, nil
}

func (b *base) archiveOptions() (optFns []func(*lazy.Options)) {
	if b.global.ExtendedMethods {
		optFns = append(optFns, codec.WithExtendedMethods())
	}

	return append(optFns, func(opts *lazy.Options) {
		opts.LegacyRangeSize = b.global.LegacyRangeSize
		opts.VerifyChecksum = b.global.Verify
	})
}

// fetcher creates the innermost fetch.Fetcher for source, registering closers with a.
func (b *base) fetcher(ctx context.Context, a *archive, source string) (fetch.Fetcher, error) {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return httpfetch.New(source), nil

	case strings.HasPrefix(source, "s3://"):
		bucket, key, err := internal.ParseS3URI(source)
		if err != nil {
			return nil, err
		}

		client, err := b.loader.NewS3ClientForBucket(ctx, bucket, func(options *s3.Options) {
			// without this, getting a bunch of WARN message below:
			// WARN Response has no supported checksum. Not validating response payload.
			options.DisableLogOutputChecksumValidationSkipped = true
		})
		if err != nil {
			return nil, fmt.Errorf("create s3 client error: %w", err)
		}

		return b.s3Fetcher(client, bucket, key), nil

	default:
		f, err := fetch.OpenFile(source)
		if err != nil {
			return nil, err
		}

		a.closers = append(a.closers, f.Close)
		return f, nil
	}
}

func (b *base) s3Fetcher(client manager.DownloadAPIClient, bucket, key string) *s3fetch.Fetcher {
	if b.global.Verbose {
		client = s3fetch.WrapClient(client, s3fetch.LogGetObject(b.logger))
	}

	cfg := b.loader.ForBucket(bucket)
	return s3fetch.New(client, bucket, key, func(opts *s3fetch.Options) {
		opts.ModifyGetObjectInput = func(input *s3.GetObjectInput) *s3.GetObjectInput {
			input.ExpectedBucketOwner = cfg.ExpectedBucketOwner
			return input
		}
	})
}

func firstPositive[T int | int64](values ...T) T {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}

	return 0
}
