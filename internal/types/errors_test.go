package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHookError_Sentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		kind     ErrorKind
	}{
		{"malformed", Malformedf("a/sync", "missing %s", "parent"), ErrMalformed, KindMalformedRequest},
		{"unsupported", Unsupportedf("a/nope", "unknown operation"), ErrUnsupported, KindUnsupportedOperation},
		{"internal", Internalf("a/sync", "no containers"), ErrInternal, KindInternalComputation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.kind, KindOf(tt.err))

			wrapped := fmt.Errorf("dispatch: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Equal(t, tt.kind, KindOf(wrapped))
		})
	}
}

func TestHookError_NotOtherSentinels(t *testing.T) {
	err := Malformedf("a/sync", "bad")
	assert.False(t, errors.Is(err, ErrUnsupported))
	assert.False(t, errors.Is(err, ErrInternal))
}

func TestHookError_Message(t *testing.T) {
	err := Malformedf("indexedjob/sync", "children group %s is missing", "Pod.v1")
	assert.Equal(t, "indexedjob/sync: MalformedRequest: children group Pod.v1 is missing", err.Error())
	assert.Equal(t, "indexedjob/sync", OpOf(err))

	noOp := &HookError{Kind: KindInternalComputation, Err: errors.New("boom")}
	assert.Equal(t, "InternalComputation: boom", noOp.Error())
}

func TestHookError_UnwrapsCause(t *testing.T) {
	cause := errors.New("json: unexpected end")
	err := Malformedf("x/sync", "decode: %w", cause)
	assert.ErrorIs(t, err, cause)
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindInternalComputation, KindOf(errors.New("plain")))
	assert.Equal(t, "", OpOf(errors.New("plain")))
}
