package health

import (
	"context"
	"errors"
)

// ErrCheckTimeout is reported when a check does not return within the
// checker's timeout.
var ErrCheckTimeout = errors.New("health check timeout")

// StaticCheck wraps a validation that only depends on configuration, such as
// the upstream URL. The result is computed once.
func StaticCheck(validate func() error) CheckFunc {
	err := validate()
	return func(ctx context.Context) error {
		return err
	}
}
