package masshash

import (
	"errors"
	"fmt"
	"strings"
)

// Problem is one atomic integrity violation. Many problems may be attached
// to a single IntegrityError.
type Problem interface {
	// Kind is a short name for the class of problem.
	Kind() string
	// Message describes this particular occurrence.
	Message() string
}

// MessageFor formats a problem's message for a specific hash.
func MessageFor(p Problem, hash Identity) string {
	return p.Message() + ": (" + hash.Hash() + ")"
}

// HashMismatch reports content whose digest differs from the expected one.
type HashMismatch struct {
	Path     string
	Expected string
	Actual   string
}

func (p HashMismatch) Kind() string { return "hash mismatch" }

func (p HashMismatch) Message() string {
	if p.Path != "" {
		return fmt.Sprintf("%s: expected %s, got %s", p.Path, p.Expected, p.Actual)
	}
	return fmt.Sprintf("expected %s, got %s", p.Expected, p.Actual)
}

// MissingFile reports a path that was expected but not found.
type MissingFile struct {
	Path string
	Hash string
}

func (p MissingFile) Kind() string { return "missing file" }

func (p MissingFile) Message() string {
	return fmt.Sprintf("%s (expected %s)", p.Path, p.Hash)
}

// UnexpectedFile reports a path that was found but not expected.
type UnexpectedFile struct {
	Path string
	Hash string
}

func (p UnexpectedFile) Kind() string { return "unexpected file" }

func (p UnexpectedFile) Message() string {
	return fmt.Sprintf("%s (%s)", p.Path, p.Hash)
}

// errorProblem is a Problem derived from an arbitrary error.
type errorProblem struct {
	err error
}

func (p errorProblem) Kind() string {
	return fmt.Sprintf("%T", p.err)
}

func (p errorProblem) Message() string {
	message := p.err.Error()
	if strings.TrimSpace(message) == "" {
		return fmt.Sprintf("%T", p.err)
	}
	return message
}

func (p errorProblem) Unwrap() error {
	return p.err
}

// messageProblem carries an already rendered description.
type messageProblem struct {
	kind    string
	message string
}

func (p messageProblem) Kind() string    { return p.kind }
func (p messageProblem) Message() string { return p.message }

// ProblemFromError converts an error into a Problem. An *IntegrityError, or
// an error wrapping one, contributes its own structured problem; anything
// else is described by its message, or by its type name when the message
// is blank. A nil error yields a nil Problem.
func ProblemFromError(err error) Problem {
	if err == nil {
		return nil
	}
	var ie *IntegrityError
	if errors.As(err, &ie) {
		return ie.ToProblem()
	}
	return errorProblem{err: err}
}

// IntegrityError aggregates integrity problems, from a single failed
// verification up to a whole batch of independent failures.
type IntegrityError struct {
	message  string
	cause    error
	problems []Problem
	rendered string

	// causeListed is set when problems[0] was derived from cause.
	causeListed bool
}

// NewIntegrityError builds an IntegrityError. Nil problems are dropped. If
// no problems are given and cause is set, the cause becomes the only
// problem.
func NewIntegrityError(message string, cause error, problems ...Problem) *IntegrityError {
	kept := make([]Problem, 0, len(problems))
	for _, p := range problems {
		if p != nil {
			kept = append(kept, p)
		}
	}
	causeListed := false
	if len(kept) == 0 && cause != nil {
		kept = append(kept, ProblemFromError(cause))
		causeListed = true
	}
	e := &IntegrityError{message: message, cause: cause, problems: kept, causeListed: causeListed}
	e.rendered = e.render()
	return e
}

// IntegrityErrorFrom builds an IntegrityError from a batch of errors. Nil
// errors are dropped, the first remaining error is the cause and each one
// becomes a problem.
func IntegrityErrorFrom(message string, errs ...error) *IntegrityError {
	var cause error
	problems := make([]Problem, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}
		if cause == nil {
			cause = err
		}
		problems = append(problems, ProblemFromError(err))
	}
	e := NewIntegrityError(message, cause, problems...)
	e.causeListed = cause != nil
	return e
}

func (e *IntegrityError) render() string {
	var b strings.Builder
	b.WriteString(e.message)
	for i, p := range e.problems {
		if i == MaxRenderedProblems {
			fmt.Fprintf(&b, "\n...and %d additional problems.", len(e.problems)-MaxRenderedProblems)
			break
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("Problem - ")
		b.WriteString(p.Kind())
		b.WriteString(": ")
		b.WriteString(p.Message())
	}
	if b.Len() == 0 {
		return "integrity check failed"
	}
	return b.String()
}

// Error returns the rendered message: the base message followed by one line
// per problem, truncated after MaxRenderedProblems.
func (e *IntegrityError) Error() string {
	return e.rendered
}

// Message returns the base message without the problem lines.
func (e *IntegrityError) Message() string {
	return e.message
}

// Cause returns the error this one was built from, if any.
func (e *IntegrityError) Cause() error {
	return e.cause
}

// Problems returns a copy of the attached problems.
func (e *IntegrityError) Problems() []Problem {
	out := make([]Problem, len(e.problems))
	copy(out, e.problems)
	return out
}

// ToProblem collapses the error into one Problem: its only problem when it
// has exactly one, otherwise a problem carrying the rendered message.
func (e *IntegrityError) ToProblem() Problem {
	if len(e.problems) == 1 {
		return e.problems[0]
	}
	return messageProblem{kind: "integrity error", message: e.rendered}
}

// Unwrap exposes the cause and every error carried by a problem, so
// errors.Is and errors.As see the whole batch.
func (e *IntegrityError) Unwrap() []error {
	var errs []error
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	for i, p := range e.problems {
		if i == 0 && e.causeListed {
			continue
		}
		if ep, ok := p.(errorProblem); ok {
			errs = append(errs, ep.err)
		}
	}
	return errs
}
