package typed

import (
	"fmt"
	"strings"

	"github.com/applyops/structmerge/fieldpath"
)

// ValidationError locates one problem found while walking a value against
// its schema: a type mismatch, unknown field, missing key field, duplicate
// associative-list key, or unresolved type reference.
type ValidationError struct {
	Path    string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrors accumulates every problem found in one walk; validation
// never stops at the first failure.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	msgs := make([]string, 0, len(errs)+1)
	msgs = append(msgs, "errors:")
	for _, e := range errs {
		msgs = append(msgs, "  "+e.Error())
	}
	return strings.Join(msgs, "\n")
}

func errorf(path fieldpath.Path, format string, args ...any) ValidationErrors {
	return ValidationErrors{{
		Path:    path.String(),
		Message: fmt.Sprintf(format, args...),
	}}
}
