package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"spritesheets/internal/toolexec"
)

type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindRender        ErrorKind = "render"
	KindAssembly      ErrorKind = "assembly"
	KindSerialization ErrorKind = "serialization"
	KindCleanup       ErrorKind = "cleanup"
	KindCanceled      ErrorKind = "canceled"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrRender        = errors.New("render error")
	ErrAssembly      = errors.New("assembly error")
	ErrSerialization = errors.New("serialization error")
	ErrCleanup       = errors.New("cleanup error")
	ErrCanceled      = errors.New("render canceled")
)

var sentinels = map[ErrorKind]error{
	KindConfiguration: ErrConfiguration,
	KindRender:        ErrRender,
	KindAssembly:      ErrAssembly,
	KindSerialization: ErrSerialization,
	KindCleanup:       ErrCleanup,
	KindCanceled:      ErrCanceled,
}

// Error is a job-level failure with enough context to tell which stage broke.
type Error struct {
	Kind     ErrorKind
	Pass     string
	Action   string
	Frame    *int
	ExitCode int
	Err      error
}

func (e *Error) Error() string {
	parts := []string{string(e.Kind)}
	if e.Pass != "" {
		parts = append(parts, "pass="+e.Pass)
	}
	if e.Action != "" {
		parts = append(parts, "action="+e.Action)
	}
	if e.Frame != nil {
		parts = append(parts, fmt.Sprintf("frame=%d", *e.Frame))
	}
	if e.ExitCode != 0 {
		parts = append(parts, fmt.Sprintf("exit_code=%d", e.ExitCode))
	}
	msg := strings.Join(parts, " ")
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if s, ok := sentinels[e.Kind]; ok {
		out = append(out, s)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func configError(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Err: fmt.Errorf(format, args...)}
}

func assemblyError(pass string, err error) error {
	e := &Error{Kind: KindAssembly, Pass: pass, Err: err}
	var exitErr *toolexec.ExitError
	if errors.As(err, &exitErr) {
		e.ExitCode = exitErr.Code
	}
	return e
}

func frameRef(frame int) *int {
	return &frame
}
