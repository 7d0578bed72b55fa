package e

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// pqIOBlockRE matches the block number inside a Postgres IO error,
// which shifts on every occurrence and would make repeats of the same
// failure look distinct in the logs
var pqIOBlockRE = regexp.MustCompile(`block [\d]+`)

// ExtendedError carries the original error plus an inner error that
// picks up a code at every wrap site, so the call path reads straight
// out of the final message
type ExtendedError struct {
	InnerError error
	Message    string
	original   error
}

// Error renders the inner error with its stack trace
func (e *ExtendedError) Error() string {
	return fmt.Sprintf("%+v", e.InnerError)
}

// IsError reports whether the originating error is the target
func (e *ExtendedError) IsError(tgt error) bool {
	return errors.Is(e.original, tgt)
}

// AsError runs errors.As against the originating error, setting the
// target on a match
func (e *ExtendedError) AsError(tgt interface{}) bool {
	return errors.As(e.original, tgt)
}

// N creates a new error from the code and message. The message doubles
// as the extended error's user facing Message
func N(code, msg string) (err error) {
	return WWM(nil, code, msg, msg)
}

// W wraps the error with the code. The first wrap captures a stack
// trace and builds the ExtendedError, every later wrap only prepends
// its code to the existing inner error, so a chain of wraps
// accumulates codes on a single stack capture
func W(err error, code string, debugMessages ...string) (ee *ExtendedError) {
	msg := NewStr(code, debugMessages...)

	if ee = AsExtendedError(err); ee != nil {
		ee.InnerError = fmt.Errorf("[%s]%+v", msg, ee)
		return ee
	}

	ee = &ExtendedError{
		original: err,
	}

	if err == nil {
		ee.InnerError = pkgerrors.New(msg)
		ee.Message = msg
		return ee
	}

	var pkgerr error
	if IsPQError(err, PQErr58030IOError) {
		// Pin the block number so repeats of the same IO failure
		// collapse into one message
		msg = pqIOBlockRE.ReplaceAllString(err.Error(), "block X")
		pkgerr = pkgerrors.Wrap(err, msg)
	} else {
		pkgerr = pkgerrors.Wrap(err, "")
	}

	ee.InnerError = fmt.Errorf("[%s]%+v", msg, pkgerr)
	ee.Message = NewStr(code, MsgUnknownInternalServerError)

	return ee
}

// WWM wraps like W, then overrides the user facing Message
func WWM(err error, code, msg string, debugMessages ...string) error {
	ee := W(err, code, debugMessages...)
	ee.Message = NewStr(code, msg)
	return ee
}

// NewStr builds the "code: msg|msg" form W and N embed in errors
func NewStr(code string, msgList ...string) (s string) {
	if len(msgList) == 0 {
		return code
	}
	return fmt.Sprintf("%s: %s", code, strings.Join(msgList, "|"))
}

// AsExtendedError returns the error as an ExtendedError, or nil when
// it is not one
func AsExtendedError(err error) (ee *ExtendedError) {
	if errors.As(err, &ee) {
		return ee
	}
	return nil
}

// ContainsError reports whether the message appears anywhere in the
// rendered chain. Callers use it to test for a code or sentinel text
// a few wraps down
func ContainsError(err error, msg string) bool {
	return strings.Contains(err.Error(), msg)
}
