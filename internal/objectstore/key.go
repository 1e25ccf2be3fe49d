package objectstore

import (
	"errors"
	"strings"
)

// ErrNotS3Location is returned when a configured location is not an
// s3://bucket[/prefix] URL.
var ErrNotS3Location = errors.New("objectstore: not an s3:// location")

// Location is a bucket and key prefix parsed from an s3:// URL.
type Location struct {
	Bucket string
	Prefix string
}

// ParseLocation splits s3://bucket/prefix into its parts. The prefix may be
// empty; surrounding slashes are trimmed.
func ParseLocation(raw string) (Location, error) {
	trimmed, ok := strings.CutPrefix(raw, "s3://")
	if !ok {
		return Location{}, ErrNotS3Location
	}
	bucket, prefix, _ := strings.Cut(trimmed, "/")
	if bucket == "" {
		return Location{}, ErrNotS3Location
	}
	return Location{Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
}

// ReceiptKey builds the object key for one run receipt,
// <prefix>/<date>/<invocationID>.json.
func ReceiptKey(prefix, date, invocationID string) string {
	key := date + "/" + invocationID + ".json"
	if prefix != "" {
		key = prefix + "/" + key
	}
	return key
}
