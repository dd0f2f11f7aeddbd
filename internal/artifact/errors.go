package artifact

import "errors"

var (
	// ErrInvalidInput reports text that is empty after trimming.
	ErrInvalidInput = errors.New("text is empty")
	// ErrSynthesisFailed wraps any error returned by the synthesis provider.
	ErrSynthesisFailed = errors.New("synthesis failed")
	// ErrSynthesisTimeout reports a provider call that outlived its deadline.
	ErrSynthesisTimeout = errors.New("synthesis timed out")
	// ErrNotFound reports a missing or unaddressable artifact.
	ErrNotFound = errors.New("audio not found")
)
