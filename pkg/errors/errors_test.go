//nolint:err113,testpackage // dynamic test errors, internal access needed
package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *PipelineError
		expected string
	}{
		{
			name:     "without cause",
			err:      &PipelineError{Type: ErrTypeIO, Message: "file creation failed"},
			expected: "io: file creation failed",
		},
		{
			name: "with cause",
			err: &PipelineError{
				Type:    ErrTypeBrokenPKGBUILDs,
				Message: "duplicate arch key",
				Cause:   errors.New("aarch64 already present"),
			},
			expected: "broken_pkgbuilds: duplicate arch key (caused by: aarch64 already present)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestPipelineError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying")
	err := &PipelineError{Type: ErrTypeIO, Message: "boom", Cause: cause}

	assert.Equal(t, cause, err.Unwrap())
}

func TestPipelineError_Is(t *testing.T) {
	t.Parallel()

	a := New(ErrTypeIO, "a")
	b := New(ErrTypeIO, "b")
	c := New(ErrTypeChildBadReturn, "c")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestPipelineError_WithContext(t *testing.T) {
	t.Parallel()

	err := New(ErrTypeParserScriptIllegalOutput, "unknown token").
		WithContext("operation", "stream-parse").
		WithContext("line", "WEIRDTOKEN")

	value, ok := err.Context("line")
	require.True(t, ok)
	assert.Equal(t, "WEIRDTOKEN", value)

	_, ok = err.Context("missing")
	assert.False(t, ok)
}

func TestPipelineError_ErrorIncludesContextInAttachmentOrder(t *testing.T) {
	t.Parallel()

	err := New(ErrTypeIO, "boom").
		WithContext("path", "/tmp/x").
		WithContext("attempt", 2)

	assert.Equal(t, "io: boom [path=/tmp/x] [attempt=2]", err.Error())
}

func TestPipelineError_WithContextAllowsRepeatedKey(t *testing.T) {
	t.Parallel()

	err := New(ErrTypeIO, "boom").
		WithContext("retry", 1).
		WithContext("retry", 2)

	value, ok := err.Context("retry")
	require.True(t, ok)
	assert.Equal(t, 2, value, "Context returns the last-attached value for a repeated key")
}

func TestClassifyChildExit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ChildReturnMultiArchAnyInRecipe, ClassifyChildExit(-1))
	assert.Equal(t, ChildReturnMissingPackageFunction, ClassifyChildExit(-2))
	assert.Equal(t, ChildReturnMultiArchAnyInSplitPackage, ClassifyChildExit(-3))
	assert.Equal(t, ChildReturnOpaque, ClassifyChildExit(-4))
	assert.Equal(t, ChildReturnOpaque, ClassifyChildExit(1))
}

func TestMismatchedResultCountError(t *testing.T) {
	t.Parallel()

	err := &MismatchedResultCountError{Input: 3, Output: 2, Partial: []string{"a", "b"}}
	assert.Contains(t, err.Error(), "expected 3 records, got 2")
}

func TestBrokenPKGBUILDsError(t *testing.T) {
	t.Parallel()

	err := &BrokenPKGBUILDsError{Paths: []string{"/a/PKGBUILD"}}
	assert.Contains(t, err.Error(), "1 recipe(s)")
}
