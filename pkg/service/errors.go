// pkg/service/errors.go
package service

import "errors"

var (
	// ErrEmptyServiceName indicates a spec was registered without a name.
	ErrEmptyServiceName = errors.New("service name required")

	// ErrNilRunFunc indicates a spec was registered without a run function.
	ErrNilRunFunc = errors.New("service run function required")

	// ErrDuplicateService indicates a name collision in the registry.
	ErrDuplicateService = errors.New("duplicate service name")

	// ErrServicePanic wraps a panic recovered from a service body.
	ErrServicePanic = errors.New("service panicked")
)
