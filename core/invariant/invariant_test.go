package invariant_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/argmerge/core/invariant"
)

// panicMessage runs fn and returns the recovered panic value as a string.
func panicMessage(t *testing.T, fn func()) (msg string) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		msg = fmt.Sprintf("%v", r)
	}()
	fn()
	return ""
}

func TestPassingAssertionsDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		invariant.Precondition(true, "collection validated")
		invariant.Postcondition(len("ok") == 2, "result length")
		invariant.Invariant(3 > 2, "cursor advanced")
		invariant.NotNil(&struct{}{}, "spec")
	})
}

func TestFailingAssertionsReportKindAndLocation(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
		want string
	}{
		{"precondition", func() { invariant.Precondition(false, "collection %s", "unvalidated") }, "PRECONDITION VIOLATION: collection unvalidated"},
		{"postcondition", func() { invariant.Postcondition(false, "result must be non-nil") }, "POSTCONDITION VIOLATION: result must be non-nil"},
		{"invariant", func() { invariant.Invariant(false, "cursor must advance") }, "INVARIANT VIOLATION: cursor must advance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := panicMessage(t, tt.fn)
			assert.Contains(t, msg, tt.want)
			assert.Contains(t, msg, "invariant_test.go")
		})
	}
}

func TestNotNilDetectsTypedNil(t *testing.T) {
	var typed *struct{}
	var m map[string]any

	assert.Contains(t, panicMessage(t, func() { invariant.NotNil(nil, "loader") }), "loader must not be nil")
	assert.Contains(t, panicMessage(t, func() { invariant.NotNil(typed, "collection") }), "collection must not be nil")
	assert.Contains(t, panicMessage(t, func() { invariant.NotNil(m, "schema") }), "schema must not be nil")
}
