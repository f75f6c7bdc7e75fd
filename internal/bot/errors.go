package bot

import "errors"

// ErrValidation marks malformed command arguments. The reply carries the command's usage hint.
var ErrValidation = errors.New("invalid command input")

type validationError struct {
	usage string
}

func usageError(usage string) error {
	return &validationError{usage: usage}
}

func (e *validationError) Error() string {
	return ErrValidation.Error() + ": usage " + e.usage
}

func (e *validationError) Is(target error) bool {
	return target == ErrValidation
}
