package z80asm

import (
	"errors"
	"fmt"
	"strings"
)

// The error kinds an assembly run can report. Diagnostics wrap one of
// these so callers can test with errors.Is.
var (
	ErrLex            = errors.New("lexical error")
	ErrParse          = errors.New("syntax error")
	ErrDuplicateSym   = errors.New("duplicate symbol")
	ErrUnresolvedSym  = errors.New("unresolved symbol")
	ErrPhaseNesting   = errors.New("phase nesting error")
	ErrSegmentOverlap = errors.New("segment overlap")
	ErrUnsupported    = errors.New("unsupported instruction")
	ErrBranchRange    = errors.New("relative jump out of range")
	ErrEncoding       = errors.New("value out of range")
	ErrPhase          = errors.New("phase error")
	ErrScope          = errors.New("update scope violation")
	ErrUser           = errors.New("error directive")
)

// Diag is one diagnostic with its source location.
type Diag struct {
	Kind error
	Pos  Pos
	Msg  string
}

func (d Diag) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Kind, d.Msg)
}

func (d Diag) Unwrap() error { return d.Kind }

// ErrorList collects diagnostics so one run can report several
// independent problems before giving up.
type ErrorList struct {
	Diags []Diag
}

func (l *ErrorList) Add(kind error, pos Pos, format string, args ...any) {
	l.Diags = append(l.Diags, Diag{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (l *ErrorList) Append(err error) {
	if err == nil {
		return
	}
	var d Diag
	if errors.As(err, &d) {
		l.Diags = append(l.Diags, d)
		return
	}
	l.Diags = append(l.Diags, Diag{Kind: err, Msg: err.Error()})
}

func (l *ErrorList) Len() int { return len(l.Diags) }

// Err returns the list as a single error, or nil if it is empty.
func (l *ErrorList) Err() error {
	if len(l.Diags) == 0 {
		return nil
	}
	return l
}

func (l *ErrorList) Error() string {
	var sb strings.Builder
	for i, d := range l.Diags {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(d.Error())
	}
	return sb.String()
}

// Is lets errors.Is match the list against any kind it contains.
func (l *ErrorList) Is(target error) bool {
	for _, d := range l.Diags {
		if errors.Is(d, target) {
			return true
		}
	}
	return false
}
