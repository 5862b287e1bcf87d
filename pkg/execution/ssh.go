package execution

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/execctx/internal/errors"
	"github.com/rileyhilliard/execctx/internal/util"
)

// DefaultSSHExecutable is the ssh client SSH contexts run.
const DefaultSSHExecutable = "/usr/bin/ssh"

// DefaultSSHArgs keeps ssh from prompting and from becoming a multiplexing
// master. A master keeps the output pipes open after the remote command ends,
// which would block Communicate until the master exits.
func DefaultSSHArgs() []string {
	return []string{"-o", "BatchMode=yes", "-o", "ControlMaster=no"}
}

// SSH runs calls on another host by handing a single command line to the
// local ssh client, one independent session per call.
//
// The remote side needs a POSIX shell. Environment variables are set by
// prefixing assignments to the command, so they add to the remote login
// environment rather than replacing it.
type SSH struct {
	host       string
	executable string
	args       []string
	inner      Context
}

// SSHOption configures an SSH context.
type SSHOption func(*SSH)

// WithSSHExecutable sets the ssh client binary.
func WithSSHExecutable(path string) SSHOption {
	return func(s *SSH) {
		if path != "" {
			s.executable = path
		}
	}
}

// WithSSHArgs replaces the client arguments placed before the host.
func WithSSHArgs(args ...string) SSHOption {
	return func(s *SSH) {
		s.args = append([]string(nil), args...)
	}
}

// NewSSH creates a context that runs commands on host through inner (Local
// when nil).
func NewSSH(host string, inner Context, opts ...SSHOption) *SSH {
	s := &SSH{
		host:       host,
		executable: DefaultSSHExecutable,
		args:       DefaultSSHArgs(),
		inner:      orLocal(inner),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SSH) String() string {
	return fmt.Sprintf("SSH(%s) atop %s", s.host, describe(s.inner))
}

// Host returns the destination passed to ssh.
func (s *SSH) Host() string {
	return s.host
}

func (s *SSH) Start(call Call) (Process, error) {
	remote, err := s.RemoteCommand(call)
	if err != nil {
		return nil, err
	}

	argv := make([]string, 0, len(s.args)+4)
	argv = append(argv, s.executable)
	argv = append(argv, s.args...)
	argv = append(argv, s.host, "--", remote)

	call.Args = argv
	call.Shell = false
	call.Env = nil
	return s.inner.Start(call)
}

// RemoteCommand builds the command line the remote shell executes for call.
func (s *SSH) RemoteCommand(call Call) (string, error) {
	if call.Executable != "" {
		return "", errors.New(errors.ErrUnsupported,
			"The executable option is not usable with an SSH context",
			"Put the program path into the command itself.")
	}
	if call.Dir != "" {
		return "", errors.New(errors.ErrUnsupported,
			"The working directory option is not usable with an SSH context",
			"Prefix the command with a cd in shell mode instead.")
	}
	if err := call.validate(); err != nil {
		return "", err
	}

	cmdline := call.CommandLine()
	if len(call.Env) == 0 {
		return cmdline, nil
	}

	var prefix strings.Builder
	for _, name := range util.SortedKeys(call.Env) {
		if !util.IsShellName(name) {
			return "", errors.New(errors.ErrEnv,
				fmt.Sprintf("The environment variable %q can not be set over SSH", name),
				"Variable names may only contain letters, digits and underscores, and must not start with a digit.")
		}
		prefix.WriteString(name + "=" + util.ShellQuote(call.Env[name]) + " ")
	}

	if call.Shell {
		// The user's expression has to see the variables as already set,
		// so it is evaluated by a second shell started with them.
		return prefix.String() + "exec sh -c " + util.ShellQuote(cmdline), nil
	}
	return prefix.String() + cmdline, nil
}
