package utils

import (
	"github.com/hashicorp/go-multierror"
)

// ErrExecSequential runs functions in order, accumulating errors so one
// failing stream does not abort its siblings.
func ErrExecSequential(functions ...func() error) error {
	var multErr error
	for _, one := range functions {
		if err := one(); err != nil {
			multErr = multierror.Append(multErr, err)
		}
	}
	return multErr
}
