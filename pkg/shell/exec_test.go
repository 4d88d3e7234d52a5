package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunScript_SimpleCommandSucceeds(t *testing.T) {
	t.Parallel()

	err := RunScript("exit 0")
	require.NoError(t, err)
}

func TestRunScript_NonZeroExitIsError(t *testing.T) {
	t.Parallel()

	err := RunScript("exit 7")
	require.Error(t, err)
}

func TestRunScript_MalformedScriptIsParseError(t *testing.T) {
	t.Parallel()

	err := RunScript("if [ 1 ]; then")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse script")
}
