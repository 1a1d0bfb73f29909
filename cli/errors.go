package cli

import "errors"

var (
	// ErrUsage marks invalid flags or arguments.
	ErrUsage = errors.New("cli usage error")
	// ErrStale is returned by validate when the file differs from a fresh build.
	ErrStale = errors.New("openapi document is out of date")
)

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}
