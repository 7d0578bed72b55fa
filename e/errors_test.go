package e

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type deadlineError struct {
	op string
}

func (err *deadlineError) Error() string {
	return fmt.Sprintf("%s: deadline exceeded", err.op)
}

func TestN(t *testing.T) {
	err := N(Code0101+"01", MsgMigrationNone)

	assert.True(t, ContainsError(err, Code0101+"01"))
	assert.True(t, ContainsError(err, MsgMigrationNone))

	ee := AsExtendedError(err)
	assert.NotNil(t, ee)
	assert.Equal(t, NewStr(Code0101+"01", MsgMigrationNone), ee.Message)
}

func TestW(t *testing.T) {
	base := errors.New("connection refused")

	err := W(base, Code0203+"01")
	ee := AsExtendedError(err)
	assert.NotNil(t, ee)
	assert.Equal(t, NewStr(Code0203+"01", MsgUnknownInternalServerError), ee.Message)
	assert.True(t, ee.IsError(base))

	// Wrapping again only grows the inner error, the message and the
	// original stay from the first wrap
	err2 := W(err, Code0203+"02", "debug detail")
	ee2 := AsExtendedError(err2)
	assert.Same(t, ee, ee2)
	assert.Equal(t, NewStr(Code0203+"01", MsgUnknownInternalServerError), ee2.Message)
	assert.True(t, ee2.IsError(base))

	assert.True(t, ContainsError(err2, Code0203+"01"))
	assert.True(t, ContainsError(err2, Code0203+"02"))
	assert.True(t, ContainsError(err2, "debug detail"))
	assert.True(t, ContainsError(err2, "connection refused"))
}

func TestWWM(t *testing.T) {
	base := errors.New("row not found")

	err := WWM(base, Code0203+"03", MsgQueueItemDoesNotExist)
	ee := AsExtendedError(err)
	assert.NotNil(t, ee)
	assert.Equal(t, NewStr(Code0203+"03", MsgQueueItemDoesNotExist), ee.Message)
	assert.True(t, ContainsError(err, MsgQueueItemDoesNotExist))
}

func TestAsError(t *testing.T) {
	base := &deadlineError{op: "push"}

	err := W(W(base, Code0203+"04"), Code0203+"05")

	ee := AsExtendedError(err)
	assert.NotNil(t, ee)

	var de *deadlineError
	assert.True(t, ee.AsError(&de))
	assert.Equal(t, "push", de.op)
}

func TestNewStr(t *testing.T) {
	assert.Equal(t, Code0203, NewStr(Code0203))
	assert.Equal(t, Code0203+": a", NewStr(Code0203, "a"))
	assert.Equal(t, Code0203+": a|b", NewStr(Code0203, "a", "b"))
}

func TestContainsErrorThroughChain(t *testing.T) {
	err := N(Code0402+"0G", MsgInventoryItemDoesNotExist)
	wrapped := W(W(err, Code0402+"09"), Code0503+"02")

	assert.True(t, ContainsError(wrapped, MsgInventoryItemDoesNotExist))
	assert.True(t, ContainsError(wrapped, Code0402+"0G"))
}
