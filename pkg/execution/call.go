package execution

import (
	"fmt"

	"github.com/rileyhilliard/execctx/internal/errors"
	"github.com/rileyhilliard/execctx/internal/util"
)

// Capture selects where a stream of the started process goes.
type Capture int

const (
	// Pipe collects the stream for Communicate. It is the zero value.
	Pipe Capture = iota
	// Inherit connects the stream to this process's own stdout/stderr.
	Inherit
	// Discard throws the stream away.
	Discard
)

func (c Capture) String() string {
	switch c {
	case Pipe:
		return "pipe"
	case Inherit:
		return "inherit"
	case Discard:
		return "discard"
	default:
		return fmt.Sprintf("capture(%d)", int(c))
	}
}

// Call describes one command to start.
//
// Layers treat a Call as a value: they change fields on their own copy and
// never mutate Args or Env in place.
type Call struct {
	// Args is the argument vector. For shell calls it holds exactly one
	// element, the shell command string.
	Args []string

	// Shell runs Args[0] through /bin/sh -c.
	Shell bool

	// Env replaces the process environment when non-nil. A nil map
	// inherits the environment; an empty map clears it.
	Env map[string]string

	// Dir is the working directory; empty means the current one.
	Dir string

	// Executable overrides the program that is run while Args[0] stays
	// the name the program sees.
	Executable string

	Stdout Capture
	Stderr Capture

	// NextState, when set, is the archive state a Recorder moves to after
	// this call. Other contexts ignore it.
	NextState *string
}

// Command returns a Call running args directly.
func Command(args ...string) Call {
	return Call{Args: args}
}

// ShellCommand returns a Call running cmd through the shell.
func ShellCommand(cmd string) Call {
	return Call{Args: []string{cmd}, Shell: true}
}

// State returns a pointer to s, for Call.NextState.
func State(s string) *string {
	return &s
}

// CommandLine is the shell-equivalent rendering of the call: the shell string
// itself for shell calls, otherwise the quoted and space-joined arguments.
func (c Call) CommandLine() string {
	if c.Shell {
		if len(c.Args) == 0 {
			return ""
		}
		return c.Args[0]
	}
	return util.ShellUnsplit(c.Args)
}

func (c Call) validate() error {
	if len(c.Args) == 0 {
		return errors.New(errors.ErrExec,
			"No command given",
			"Pass at least the program name in Args.")
	}
	if c.Shell && len(c.Args) != 1 {
		return errors.New(errors.ErrUnsupported,
			fmt.Sprintf("Shell calls take exactly one command string, got %d arguments", len(c.Args)),
			"Join the command into a single string, quoting words with spaces.")
	}
	return nil
}

// mergeEnv returns a new map holding base overwritten by preset. A nil base
// yields a copy of preset alone.
func mergeEnv(base, preset map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(preset))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range preset {
		merged[k] = v
	}
	return merged
}
