package scheduler

import "strings"

// Kind classifies an error recorded on a Scheduler's error stack (spec
// §7): Memory covers allocation/resource exhaustion, InvalidPath covers
// bad schedule directories or config, Internal covers everything else
// (a failed commit, a corrupt row).
type Kind int

const (
	KindInternal Kind = iota
	KindMemory
	KindInvalidPath
)

func (k Kind) String() string {
	switch k {
	case KindMemory:
		return "memory"
	case KindInvalidPath:
		return "invalid_path"
	default:
		return "internal"
	}
}

// stackedError pairs a Kind with the wrapped cause.
type stackedError struct {
	kind  Kind
	cause error
}

func (e *stackedError) Error() string {
	return e.kind.String() + ": " + e.cause.Error()
}

func (e *stackedError) Unwrap() error { return e.cause }

// ErrorStack is an ordered stack of errors, outer cause first, mirroring
// spec §7's "error buffer". It is not safe for concurrent use; callers
// push under the same lock that guards the rest of the Scheduler.
type ErrorStack struct {
	errs []*stackedError
}

// Push records err with kind after every cause already recorded, as
// the new innermost cause.
func (s *ErrorStack) Push(kind Kind, err error) {
	if err == nil {
		return
	}
	s.errs = append(s.errs, &stackedError{kind: kind, cause: err})
}

// Empty reports whether the stack has no recorded errors.
func (s *ErrorStack) Empty() bool { return len(s.errs) == 0 }

// Len returns the number of recorded errors.
func (s *ErrorStack) Len() int { return len(s.errs) }

// Unwrap exposes the stack to errors.Is/errors.As via the standard
// multi-error convention, outer cause first.
func (s *ErrorStack) Unwrap() []error {
	out := make([]error, len(s.errs))
	for i, e := range s.errs {
		out[i] = e
	}
	return out
}

// Error joins every recorded cause, outermost first, one per line.
func (s *ErrorStack) Error() string {
	if s.Empty() {
		return "<empty error stack>"
	}
	parts := make([]string, len(s.errs))
	for i, e := range s.errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n")
}

// Clear discards every recorded error.
func (s *ErrorStack) Clear() { s.errs = nil }
