package config

import (
	"github.com/aws/aws-sdk-go-v2/aws"
)

// FetchConfig contains the [fetch] settings. Zero values mean unset.
type FetchConfig struct {
	CacheSize        int
	MaxBytesInSecond int64
	Concurrency      int
}

// ForFetch returns configuration for fetching archives.
func (l *Loader) ForFetch() (c FetchConfig) {
	sec, ok := l.section("fetch")
	if !ok {
		return c
	}

	c.CacheSize = sec.Key("cache").MustInt(0)
	c.MaxBytesInSecond = sec.Key("max-bytes-per-second").MustInt64(0)
	c.Concurrency = sec.Key("concurrency").MustInt(0)

	return
}

// BucketConfig contains configuration settings for a specific bucket.
type BucketConfig struct {
	Bucket              string
	AWSProfile          string
	ExpectedBucketOwner *string
}

// ForBucket returns configuration for a specific bucket from its [s3://bucket] section.
func (l *Loader) ForBucket(bucket string) (c BucketConfig) {
	sec, ok := l.section("s3://" + bucket)
	if !ok {
		return c
	}

	c.Bucket = bucket
	c.AWSProfile = sec.Key("aws-profile").Value()

	if sec.HasKey("expected-bucket-owner") {
		c.ExpectedBucketOwner = aws.String(sec.Key("expected-bucket-owner").Value())
	}

	return
}
