package materializer

import "errors"

var (
	ErrMissingSessionID  = errors.New("materializer: missing session id")
	ErrSessionNotFound   = errors.New("materializer: checkout session not found")
	ErrSessionIncomplete = errors.New("materializer: checkout session not paid")
	ErrMissingMetadata   = errors.New("materializer: checkout session has no customer metadata")
	// ErrUnavailable wraps processor or store failures worth retrying.
	ErrUnavailable = errors.New("materializer: dependency unavailable")
)

// Kinds used in logs and by callers deciding whether to retry.
const (
	KindValidation = "validation"
	KindRemote     = "remote"
	KindIntegrity  = "integrity"
)

func Kind(err error) string {
	switch {
	case errors.Is(err, ErrMissingSessionID):
		return KindValidation
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionIncomplete), errors.Is(err, ErrMissingMetadata):
		return KindIntegrity
	default:
		return KindRemote
	}
}

func Retryable(err error) bool { return err != nil && Kind(err) == KindRemote }
