package childio

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipes_Work_Threaded_RoundTripsThroughCat(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("cat")

	pipes, err := NewPipes(cmd)
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	input := []byte("hello harness\n")

	stdout, stderr, err := pipes.Work(Threaded, input)
	require.NoError(t, err)
	require.NoError(t, cmd.Wait())

	assert.Equal(t, input, stdout)
	assert.Empty(t, stderr)
}

func TestPipes_Work_SingleThreadNonBlocking_RoundTripsThroughCat(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("cat")

	pipes, err := NewPipes(cmd)
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	input := []byte("hello non-blocking harness\n")

	stdout, stderr, err := pipes.Work(SingleThreadNonBlocking, input)
	require.NoError(t, err)
	require.NoError(t, cmd.Wait())

	assert.Equal(t, input, stdout)
	assert.Empty(t, stderr)
}

func TestPipes_Work_Threaded_EmptyInput(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("cat")

	pipes, err := NewPipes(cmd)
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	stdout, stderr, err := pipes.Work(Threaded, nil)
	require.NoError(t, err)
	require.NoError(t, cmd.Wait())

	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestPipes_Work_Threaded_CapturesStderr(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("sh", "-c", "cat >&2")

	pipes, err := NewPipes(cmd)
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	input := []byte("goes to stderr")

	stdout, stderr, err := pipes.Work(Threaded, input)
	require.NoError(t, err)
	require.NoError(t, cmd.Wait())

	assert.Empty(t, stdout)
	assert.Equal(t, input, stderr)
}

func TestIsEAGAIN(t *testing.T) {
	t.Parallel()

	assert.False(t, isEAGAIN(nil))
}
