package core

import "fmt"

// ConfigurationError reports a missing or unusable credential/resource at
// connect time. It is fatal to the session; there is no retry.
type ConfigurationError struct {
	Resource string
	Err      error
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %v", e.Resource, e.Err)
}

func (e ConfigurationError) Unwrap() error { return e.Err }

// StoreUnavailableError reports that the record store could not complete an
// append: the backing service is unreachable or rejected the transaction.
type StoreUnavailableError struct {
	Err error
}

func (e StoreUnavailableError) Error() string {
	return fmt.Sprintf("record store unavailable: %v", e.Err)
}

func (e StoreUnavailableError) Unwrap() error { return e.Err }

// ValidationError rejects a submission before identifier generation or append
// is attempted. The submitter corrects the input and resubmits.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
