package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsColorDisabled_NoColorEnv(t *testing.T) {
	old := os.Getenv("NO_COLOR")
	t.Cleanup(func() { os.Setenv("NO_COLOR", old) })

	os.Setenv("NO_COLOR", "1")
	assert.True(t, IsColorDisabled())
}

func TestIsColorDisabled_DumbTerm(t *testing.T) {
	oldNoColor := os.Getenv("NO_COLOR")
	oldTerm := os.Getenv("TERM")

	t.Cleanup(func() {
		os.Setenv("NO_COLOR", oldNoColor)
		os.Setenv("TERM", oldTerm)
	})

	os.Unsetenv("NO_COLOR")
	os.Setenv("TERM", "dumb")
	assert.True(t, IsColorDisabled())
}

func TestSetColorDisabled(t *testing.T) {
	SetColorDisabled(true)
	assert.True(t, IsColorDisabled())

	SetColorDisabled(false)
	assert.False(t, colorDisabled)
}

func TestSetVerbose(t *testing.T) {
	SetVerbose(true)
	assert.True(t, verboseEnabled)

	SetVerbose(false)
	assert.False(t, verboseEnabled)
}

func TestLoggingDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		Info("parsed recipe", "pkgbase", "foo", "count", 3)
		Warn("unknown scheme", "scheme", "xyz")
		Error("boom")
		Debug("verbose detail")
	})
}
