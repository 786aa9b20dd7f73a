package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

const maxObjectSizeBytes = 512 << 20

// S3API is the subset of the S3 client the store needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ contractx.ArtifactStore = (*S3Store)(nil)

type S3Store struct {
	client        S3API
	maxObjectSize int64
}

type S3Option func(*S3Store)

// WithMaxObjectSize caps how many bytes Get reads before failing.
func WithMaxObjectSize(n int64) S3Option {
	return func(s *S3Store) {
		if n > 0 {
			s.maxObjectSize = n
		}
	}
}

func NewS3Store(client S3API, opts ...S3Option) (*S3Store, error) {
	if client == nil {
		return nil, errors.New("s3 client is required")
	}
	s := &S3Store{client: client, maxObjectSize: maxObjectSizeBytes}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *S3Store) Put(ctx context.Context, bucket, key string, data []byte) (string, error) {
	if bucket == "" || key == "" {
		return "", storageErr("put", bucket, key, fmt.Errorf("%w: bucket and key are required", contractx.ErrValidation))
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", storageErr("put", bucket, key, err)
	}
	return Format(SchemeS3, bucket, key), nil
}

func (s *S3Store) Get(ctx context.Context, raw string) ([]byte, error) {
	u, err := ParseURI(raw)
	if err != nil {
		return nil, storageErr("get", "", raw, err)
	}
	if u.Scheme != SchemeS3 {
		return nil, storageErr("get", u.Bucket, u.Key, fmt.Errorf("%w: unsupported scheme %q", contractx.ErrValidation, u.Scheme))
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(u.Key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, storageErr("get", u.Bucket, u.Key, ErrNotFound)
		}
		return nil, storageErr("get", u.Bucket, u.Key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, s.maxObjectSize+1))
	if err != nil {
		return nil, storageErr("read", u.Bucket, u.Key, err)
	}
	if int64(len(data)) > s.maxObjectSize {
		return nil, storageErr("read", u.Bucket, u.Key, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, s.maxObjectSize))
	}
	return data, nil
}
