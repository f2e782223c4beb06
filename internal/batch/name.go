package batch

import (
	"fmt"
	"strings"
)

// Name is a listing filename split by the batch naming convention.
type Name struct {
	Batch string
	Date  string
	Extra string
}

// UnrecognizedFilenameError reports a listing whose name does not follow the
// "<batch>_<date>_<extra>" convention.
type UnrecognizedFilenameError struct {
	Filename string
}

func (e *UnrecognizedFilenameError) Error() string {
	return fmt.Sprintf("unrecognized listing filename %q: want <batch>_<date>_<extra>", e.Filename)
}

// ErrorKind classifies the failure for run reports.
func (e *UnrecognizedFilenameError) ErrorKind() string { return "unrecognized_filename" }

// ParseName splits filename into its three parts. The extra part keeps any
// further underscores; all three must be non-empty.
func ParseName(filename string) (Name, error) {
	parts := strings.SplitN(filename, "_", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Name{}, &UnrecognizedFilenameError{Filename: filename}
	}
	return Name{Batch: parts[0], Date: parts[1], Extra: parts[2]}, nil
}
