package secrets

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: KindBackend, Op: "doppler", Detail: "unauthorized"}, "backend error: doppler: unauthorized"},
		{&Error{Kind: KindInvocation, Op: "doppler", Err: errors.New("not found")}, "invocation error: doppler: not found"},
		{&Error{Kind: KindParse, Detail: "bad"}, "parse error: bad"},
		{NewIOError("remove cache", os.ErrPermission), "io error: remove cache: permission denied"},
		{&Error{}, "unknown error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	base := &Error{Kind: KindParse, Detail: "bad"}
	wrapped := fmt.Errorf("fetch: %w", base)

	k, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindParse, k)
	assert.True(t, IsKind(wrapped, KindParse))
	assert.False(t, IsKind(wrapped, KindIO))

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsKind(nil, KindIO))
}

func TestError_UnwrapsCause(t *testing.T) {
	err := NewIOError("write cache", os.ErrPermission)
	assert.ErrorIs(t, err, os.ErrPermission)
}
