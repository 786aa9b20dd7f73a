package artifact

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

const (
	SchemeS3     = "s3"
	SchemeMemory = "mem"
)

// URI identifies a blob as scheme://bucket/key.
type URI struct {
	Scheme string
	Bucket string
	Key    string
}

func (u URI) String() string {
	return Format(u.Scheme, u.Bucket, u.Key)
}

func Format(scheme, bucket, key string) string {
	return scheme + "://" + bucket + "/" + strings.TrimLeft(key, "/")
}

func ParseURI(raw string) (URI, error) {
	raw = strings.TrimSpace(raw)
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || scheme == "" {
		return URI{}, fmt.Errorf("%w: artifact uri %q has no scheme", contractx.ErrValidation, raw)
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return URI{}, fmt.Errorf("%w: artifact uri %q must be %s://bucket/key", contractx.ErrValidation, raw, scheme)
	}
	return URI{Scheme: scheme, Bucket: bucket, Key: key}, nil
}

// IsURI reports whether raw looks like a reference rather than inline content.
func IsURI(raw string) bool {
	_, err := ParseURI(raw)
	return err == nil
}
