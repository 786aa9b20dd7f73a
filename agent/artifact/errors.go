package artifact

import (
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

// StorageError carries bucket/key context for any store fault.
type StorageError struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s s3://%s/%s: %v", contractx.ErrStorage, e.Op, e.Bucket, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == contractx.ErrStorage
}

var (
	ErrNotFound = errors.New("artifact not found")
	ErrTooLarge = errors.New("artifact exceeds size limit")
)

func storageErr(op, bucket, key string, err error) error {
	return &StorageError{Op: op, Bucket: bucket, Key: key, Err: err}
}
