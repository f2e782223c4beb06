package listing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyListing is returned for a listing with no non-blank lines.
var ErrEmptyListing = errors.New("listing is empty")

// DecodeError reports a listing no candidate encoding could decode.
type DecodeError struct {
	Path  string
	Tried []string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: tried %s", e.Path, strings.Join(e.Tried, ", "))
}

// ErrorKind classifies the failure for run reports.
func (e *DecodeError) ErrorKind() string { return "decode" }
