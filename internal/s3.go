package internal

import (
	"fmt"
	"strings"
)

// ParseS3URI parses S3 URIs in format s3://bucket/key.
//
// Both bucket and key must be non-empty; bucket names are not otherwise validated.
func ParseS3URI(text string) (bucket, key string, err error) {
	if !strings.HasPrefix(text, "s3://") {
		return "", "", fmt.Errorf("%q does not start with s3://", text)
	}

	bucket, key, _ = strings.Cut(strings.TrimPrefix(text, "s3://"), "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%q is not in format s3://bucket/key", text)
	}

	return bucket, key, nil
}
