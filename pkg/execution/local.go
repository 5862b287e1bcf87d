package execution

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/rileyhilliard/execctx/internal/errors"
	"github.com/rileyhilliard/execctx/internal/util"
)

// DefaultShell runs shell calls.
const DefaultShell = "/bin/sh"

// Local starts commands as OS processes on this machine.
type Local struct{}

func (Local) String() string {
	return "local"
}

// Start spawns the process described by call.
func (Local) Start(call Call) (Process, error) {
	if err := call.validate(); err != nil {
		return nil, err
	}

	argv := call.Args
	if call.Shell {
		argv = []string{DefaultShell, "-c", call.Args[0]}
		if call.Executable != "" {
			argv[0] = call.Executable
		}
	}

	program := argv[0]
	if call.Executable != "" {
		program = call.Executable
	}

	path, err := exec.LookPath(program)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Couldn't find %s", program),
			"Make sure the command exists and is executable.")
	}

	cmd := &exec.Cmd{
		Path: path,
		Args: argv,
		Dir:  call.Dir,
	}
	if call.Env != nil {
		cmd.Env = envList(call.Env)
	}

	p := &localProcess{cmd: cmd}

	switch call.Stdout {
	case Pipe:
		if p.stdout, err = cmd.StdoutPipe(); err != nil {
			return nil, pipeError(err)
		}
	case Inherit:
		cmd.Stdout = os.Stdout
	}

	switch call.Stderr {
	case Pipe:
		if p.stderr, err = cmd.StderrPipe(); err != nil {
			return nil, pipeError(err)
		}
	case Inherit:
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Couldn't start %s", program),
			"Make sure the command exists and is executable.")
	}

	return p, nil
}

func pipeError(err error) error {
	return errors.WrapWithCode(err, errors.ErrExec,
		"Couldn't create output pipe",
		"This shouldn't happen - please report this bug!")
}

// envList renders env as a sorted KEY=value list. An empty map yields an
// empty, non-nil list so the child gets no environment at all.
func envList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for _, k := range util.SortedKeys(env) {
		list = append(list, k+"="+env[k])
	}
	return list
}

// localProcess is a running OS process. Wait and Communicate both drain the
// pipes before reaping the process, so calling Wait first never blocks on a
// full pipe buffer and the output stays available to Communicate.
type localProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser

	once     sync.Once
	out      []byte
	errOut   []byte
	exitCode int
	err      error
}

// Stdout gives incremental access to the stdout pipe, or nil when stdout is
// not piped. Whatever is read here is missing from Communicate's result.
func (p *localProcess) Stdout() io.Reader {
	if p.stdout == nil {
		return nil
	}
	return p.stdout
}

// Stderr is the stderr counterpart of Stdout.
func (p *localProcess) Stderr() io.Reader {
	if p.stderr == nil {
		return nil
	}
	return p.stderr
}

func (p *localProcess) Wait() (int, error) {
	p.once.Do(p.finish)
	return p.exitCode, p.err
}

func (p *localProcess) Communicate() ([]byte, []byte, error) {
	p.once.Do(p.finish)
	return p.out, p.errOut, p.err
}

func (p *localProcess) finish() {
	var wg sync.WaitGroup
	var outErr, errErr error

	if p.stdout != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.out, outErr = io.ReadAll(p.stdout)
		}()
	}
	if p.stderr != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.errOut, errErr = io.ReadAll(p.stderr)
		}()
	}
	wg.Wait()

	p.exitCode, p.err = exitStatus(p.cmd.Wait())
	if p.err != nil {
		return
	}
	for _, err := range []error{outErr, errErr} {
		if err != nil {
			p.err = errors.WrapWithCode(err, errors.ErrExec,
				"Couldn't read command output",
				"The process may have closed its output unexpectedly.")
			return
		}
	}
}

// exitStatus converts the result of exec.Cmd.Wait into an exit code. A
// non-zero exit is not an error.
func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return -int(status.Signal()), nil
		}
		return exitErr.ExitCode(), nil
	}
	return -1, errors.WrapWithCode(err, errors.ErrExec,
		"Failed to wait for the command",
		"Check that the command exists and is executable")
}
