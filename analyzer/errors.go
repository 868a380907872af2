package analyzer

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidInputError is raised when the analyzer is given input it cannot
// legally produce a Program from — presently only when a LambdaReference
// appears in parser output, which the parser itself never emits.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Message)
}

func invalidInput(format string, args ...interface{}) error {
	return &InvalidInputError{Message: errors.Errorf(format, args...).Error()}
}
