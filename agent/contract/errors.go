package contract

import "errors"

var (
	ErrValidation    = errors.New("validation failed")
	ErrRemoteCall    = errors.New("remote call failed")
	ErrRateLimited   = errors.New("remote call rate limited")
	ErrParse         = errors.New("response could not be parsed")
	ErrStorage       = errors.New("artifact storage failed")
	ErrTimeout       = errors.New("async job timed out")
	ErrPromptMissing = errors.New("required prompt is missing")
)

// ErrorKind names the taxonomy class of an error as it appears in reports.
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindValidation ErrorKind = "validation"
	KindRemoteCall ErrorKind = "remote_call"
	KindParse      ErrorKind = "parse"
	KindStorage    ErrorKind = "storage"
	KindTimeout    ErrorKind = "timeout"
	KindInternal   ErrorKind = "internal"
)

func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation), errors.Is(err, ErrPromptMissing):
		return KindValidation
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrStorage):
		return KindStorage
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrRemoteCall), errors.Is(err, ErrRateLimited):
		return KindRemoteCall
	default:
		return KindInternal
	}
}
