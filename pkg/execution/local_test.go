package execution_test

import (
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/rileyhilliard/execctx/internal/errors"
	"github.com/rileyhilliard/execctx/pkg/execution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestLocal_Argv(t *testing.T) {
	skipOnWindows(t)

	p, err := execution.Local{}.Start(execution.Command("echo", "hello world"))
	require.NoError(t, err)

	stdout, stderr, err := p.Communicate()
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(stdout))
	assert.Empty(t, stderr)

	code, err := p.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestLocal_Shell(t *testing.T) {
	skipOnWindows(t)

	p, err := execution.Local{}.Start(execution.ShellCommand("echo 'hello world' | tr ' ' '_'; echo oops >&2; exit 3"))
	require.NoError(t, err)

	stdout, stderr, err := p.Communicate()
	require.NoError(t, err)
	assert.Equal(t, "hello_world\n", string(stdout))
	assert.Equal(t, "oops\n", string(stderr))

	code, err := p.Wait()
	require.NoError(t, err)
	assert.Equal(t, 3, code, "non-zero exit is not an error")
}

func TestLocal_WaitBeforeCommunicateKeepsOutput(t *testing.T) {
	skipOnWindows(t)

	// more than a pipe buffer, so waiting without draining would block
	p, err := execution.Local{}.Start(execution.ShellCommand("head -c 200000 /dev/zero | tr '\\0' x"))
	require.NoError(t, err)

	code, err := p.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	stdout, _, err := p.Communicate()
	require.NoError(t, err)
	assert.Len(t, stdout, 200000)
}

func TestLocal_Environment(t *testing.T) {
	skipOnWindows(t)

	t.Run("nil inherits", func(t *testing.T) {
		t.Setenv("EXECCTX_TEST_VAR", "inherited")
		out, err := execution.Execute(execution.Local{}, execution.ShellCommand("echo $EXECCTX_TEST_VAR")).Read()
		require.NoError(t, err)
		assert.Equal(t, "inherited\n", string(out))
	})

	t.Run("map replaces", func(t *testing.T) {
		t.Setenv("EXECCTX_TEST_VAR", "inherited")
		call := execution.ShellCommand("echo \"$y:$x:$EXECCTX_TEST_VAR\"")
		call.Env = map[string]string{"x": "42", "y": "23"}

		out, err := execution.Execute(execution.Local{}, call).Read()
		require.NoError(t, err)
		assert.Equal(t, "23:42:\n", string(out))
	})
}

func TestLocal_Dir(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	call := execution.Command("pwd")
	call.Dir = dir

	out, err := execution.Execute(execution.Local{}, call).Read()
	require.NoError(t, err)
	assert.Contains(t, strings.TrimSpace(string(out)), filepath.Base(dir))
}

func TestLocal_Executable(t *testing.T) {
	skipOnWindows(t)

	// argv[0] stays as given while the executable is replaced
	call := execution.Command("renamed", "-c", `echo "$0"`)
	call.Executable = "/bin/sh"

	out, err := execution.Execute(execution.Local{}, call).Read()
	require.NoError(t, err)
	assert.Equal(t, "renamed\n", string(out))
}

func TestLocal_StdoutStream(t *testing.T) {
	skipOnWindows(t)

	p, err := execution.Local{}.Start(execution.Command("echo", "streamed"))
	require.NoError(t, err)

	streamer, ok := p.(interface{ Stdout() io.Reader })
	require.True(t, ok)
	data, err := io.ReadAll(streamer.Stdout())
	require.NoError(t, err)
	assert.Equal(t, "streamed\n", string(data))

	code, err := p.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestLocal_DiscardedStreams(t *testing.T) {
	skipOnWindows(t)

	call := execution.ShellCommand("echo out; echo err >&2")
	call.Stdout = execution.Discard
	call.Stderr = execution.Discard

	p, err := execution.Local{}.Start(call)
	require.NoError(t, err)

	stdout, stderr, err := p.Communicate()
	require.NoError(t, err)
	assert.Nil(t, stdout)
	assert.Nil(t, stderr)
}

func TestLocal_Signaled(t *testing.T) {
	skipOnWindows(t)

	p, err := execution.Local{}.Start(execution.ShellCommand("kill -9 $$"))
	require.NoError(t, err)

	code, err := p.Wait()
	require.NoError(t, err)
	assert.Equal(t, -9, code)
}

func TestLocal_SpawnFailure(t *testing.T) {
	_, err := execution.Local{}.Start(execution.Command("definitely-not-a-real-command-12345"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
}

func TestLocal_InvalidCalls(t *testing.T) {
	_, err := execution.Local{}.Start(execution.Call{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))

	_, err = execution.Local{}.Start(execution.Call{Args: []string{"echo", "x"}, Shell: true})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrUnsupported))
}
