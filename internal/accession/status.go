package accession

import (
	"errors"
	"fmt"
)

// Status is the verification state of one accession record.
type Status uint8

const (
	StatusUnresolved Status = iota
	StatusFound
	StatusPerfectMatch
	StatusWithDuplicates
	StatusNotFound
	StatusDeaccession
)

// ErrIllegalTransition is returned when a record is moved between states the
// lifecycle does not allow.
var ErrIllegalTransition = errors.New("illegal status transition")

// AllStatuses lists every status in display order.
var AllStatuses = []Status{
	StatusUnresolved,
	StatusFound,
	StatusPerfectMatch,
	StatusWithDuplicates,
	StatusNotFound,
	StatusDeaccession,
}

func (s Status) String() string {
	switch s {
	case StatusUnresolved:
		return "unresolved"
	case StatusFound:
		return "found"
	case StatusPerfectMatch:
		return "perfect_match"
	case StatusWithDuplicates:
		return "with_duplicates"
	case StatusNotFound:
		return "not_found"
	case StatusDeaccession:
		return "deaccession"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range AllStatuses {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// Matched reports whether the status carries a restored reference.
func (s Status) Matched() bool {
	switch s {
	case StatusFound, StatusPerfectMatch, StatusWithDuplicates:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s != StatusUnresolved
}

// canTransition lists every legal move. Records are created Unresolved and
// leave that state exactly once.
func canTransition(from, to Status) bool {
	switch from {
	case StatusUnresolved:
		switch to {
		case StatusFound, StatusPerfectMatch, StatusWithDuplicates, StatusNotFound, StatusDeaccession:
			return true
		}
		return false
	case StatusFound, StatusPerfectMatch, StatusWithDuplicates, StatusNotFound, StatusDeaccession:
		return false
	default:
		return false
	}
}
