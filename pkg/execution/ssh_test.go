package execution_test

import (
	"testing"

	"github.com/rileyhilliard/execctx/internal/errors"
	"github.com/rileyhilliard/execctx/pkg/execution"
	exectesting "github.com/rileyhilliard/execctx/pkg/execution/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSH_ForwardedCall(t *testing.T) {
	tests := []struct {
		name   string
		call   execution.Call
		remote string
	}{
		{
			name:   "argv is joined",
			call:   execution.Command("ls", "-l"),
			remote: "ls -l",
		},
		{
			name:   "argv is quoted",
			call:   execution.Command("echo", `"spam"`, `egg\spam`),
			remote: `echo '"spam"' 'egg\spam'`,
		},
		{
			name:   "shell string passes verbatim",
			call:   execution.ShellCommand(`echo "hello world!" 'fun', really`),
			remote: `echo "hello world!" 'fun', really`,
		},
		{
			name: "env prefixes argv",
			call: execution.Call{
				Args: []string{"xrandr", "-q"},
				Env:  map[string]string{"DISPLAY": ":0", "LANG": "en US"},
			},
			remote: "DISPLAY=:0 LANG='en US' xrandr -q",
		},
		{
			name: "env goes through a second shell in shell mode",
			call: execution.Call{
				Args:  []string{"echo $DISPLAY"},
				Shell: true,
				Env:   map[string]string{"DISPLAY": ":0"},
			},
			remote: `DISPLAY=:0 exec sh -c 'echo $DISPLAY'`,
		},
		{
			name:   "empty env adds nothing",
			call:   execution.Call{Args: []string{"true"}, Env: map[string]string{}},
			remote: "true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := exectesting.NewFakeContext(nil)
			_, err := execution.NewSSH("example.org", inner).Start(tt.call)
			require.NoError(t, err)

			got, ok := inner.LastCall()
			require.True(t, ok)
			assert.Equal(t, []string{
				"/usr/bin/ssh", "-o", "BatchMode=yes", "-o", "ControlMaster=no",
				"example.org", "--", tt.remote,
			}, got.Args)
			assert.False(t, got.Shell)
			assert.Nil(t, got.Env)
		})
	}
}

func TestSSH_Options(t *testing.T) {
	inner := exectesting.NewFakeContext(nil)
	c := execution.NewSSH("user@box", inner,
		execution.WithSSHExecutable("/opt/bin/ssh"),
		execution.WithSSHArgs("-p", "2222"))

	_, err := c.Start(execution.Command("uname", "-a"))
	require.NoError(t, err)

	got, _ := inner.LastCall()
	assert.Equal(t, []string{"/opt/bin/ssh", "-p", "2222", "user@box", "--", "uname -a"}, got.Args)
	assert.Equal(t, "user@box", c.Host())
}

func TestSSH_PreservesCaptureAndState(t *testing.T) {
	inner := exectesting.NewFakeContext(nil)
	call := execution.Command("true")
	call.Stderr = execution.Discard
	call.NextState = execution.State("x/")

	_, err := execution.NewSSH("box", inner).Start(call)
	require.NoError(t, err)

	got, _ := inner.LastCall()
	assert.Equal(t, execution.Discard, got.Stderr)
	require.NotNil(t, got.NextState)
	assert.Equal(t, "x/", *got.NextState)
}

func TestSSH_Rejections(t *testing.T) {
	tests := []struct {
		name string
		call execution.Call
		code string
	}{
		{"executable", execution.Call{Args: []string{"ls"}, Executable: "/bin/ls"}, errors.ErrUnsupported},
		{"cwd", execution.Call{Args: []string{"ls"}, Dir: "/tmp"}, errors.ErrUnsupported},
		{"leading digit", execution.Call{Args: []string{"ls"}, Env: map[string]string{"1FOO": "x"}}, errors.ErrEnv},
		{"dash", execution.Call{Args: []string{"ls"}, Env: map[string]string{"FOO-BAR": "x"}}, errors.ErrEnv},
		{"empty name", execution.Call{Args: []string{"ls"}, Env: map[string]string{"": "x"}}, errors.ErrEnv},
		{"no args", execution.Call{}, errors.ErrExec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := exectesting.NewFakeContext(nil)
			_, err := execution.NewSSH("box", inner).Start(tt.call)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
			assert.Equal(t, 0, inner.CallCount(), "rejected calls must not be forwarded")
		})
	}
}

func TestSSH_ValidEnvName(t *testing.T) {
	inner := exectesting.NewFakeContext(nil)
	call := execution.Command("env")
	call.Env = map[string]string{"FOO_1": "bar"}

	_, err := execution.NewSSH("box", inner).Start(call)
	require.NoError(t, err)

	got, _ := inner.LastCall()
	assert.Equal(t, "FOO_1=bar env", got.Args[len(got.Args)-1])
}

func TestSSH_RemoteCommandRunsInShell(t *testing.T) {
	skipOnWindows(t)

	// The remote command line must mean the same as the original call when a
	// POSIX shell evaluates it, which is all ssh does with it.
	calls := []execution.Call{
		execution.Command("printf", "%s|", `"spam"`, `egg\spam`, "it's"),
		{Args: []string{`printf '%s|' "$A" "$B"`}, Shell: true, Env: map[string]string{"A": "x y", "B": "it's"}},
	}
	want := []string{`"spam"|egg\spam|it's|`, "x y|it's|"}

	s := execution.NewSSH("unused", exectesting.NewFakeContext(nil))
	for i, call := range calls {
		remote, err := s.RemoteCommand(call)
		require.NoError(t, err)

		out, err := execution.Execute(execution.Local{}, execution.ShellCommand(remote)).Read()
		require.NoError(t, err)
		assert.Equal(t, want[i], string(out))
	}
}
