package execution

import (
	"bytes"
	"fmt"
	"io"

	"github.com/rileyhilliard/execctx/internal/archive"
	"github.com/rileyhilliard/execctx/internal/errors"
)

// ErrMissingEntry is returned by Player when the archive holds no result for
// a call in the current state.
var ErrMissingEntry = errors.New(errors.ErrArchive,
	"No cached result for this command",
	"Record the command first, and replay calls in the order they were recorded.")

// Player answers calls from an archive written by a Recorder. It starts no
// processes and has no inner context.
//
// Only the command line and the current state select an entry; environment,
// working directory and executable are not part of the key.
type Player struct {
	archive *archive.Reader
	state   string
}

// NewPlayer opens the archive at path.
func NewPlayer(path string) (*Player, error) {
	r, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	return &Player{archive: r}, nil
}

func (p *Player) String() string {
	return fmt.Sprintf("Player(%s)", p.archive.Path())
}

// State returns the state prefix the next lookup uses.
func (p *Player) State() string {
	return p.state
}

func (p *Player) Start(call Call) (Process, error) {
	// Writing into arbitrary destinations could block on the very reader
	// that is supposed to drain them.
	if call.Stdout != Pipe || call.Stderr != Pipe {
		return nil, errors.New(errors.ErrUnsupported,
			fmt.Sprintf("Capture mode not supported: stdout=%s stderr=%s", call.Stdout, call.Stderr),
			"Replayed calls must pipe both stdout and stderr.")
	}
	if err := call.validate(); err != nil {
		return nil, err
	}

	cmdline := call.CommandLine()
	entry, ok, err := p.archive.Lookup(archive.Key(p.state, cmdline))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.WrapWithCode(ErrMissingEntry, errors.ErrArchive,
			fmt.Sprintf("No cached result for %q in state %q", cmdline, p.state),
			fmt.Sprintf("Record it into %s, or replay calls in recording order.", p.archive.Path()))
	}

	if entry.HasNextState {
		p.state = entry.NextState
	}

	return &replayedProcess{stdout: entry.Stdout, stderr: entry.Stderr, exitCode: entry.ExitCode}, nil
}

// Close releases the archive.
func (p *Player) Close() error {
	return p.archive.Close()
}

// replayedProcess is a finished process made up from archive contents.
type replayedProcess struct {
	stdout   []byte
	stderr   []byte
	exitCode int
}

func (p *replayedProcess) Wait() (int, error) {
	return p.exitCode, nil
}

func (p *replayedProcess) Communicate() ([]byte, []byte, error) {
	return p.stdout, p.stderr, nil
}

// Stdout returns a reader over the stored stdout.
func (p *replayedProcess) Stdout() io.Reader {
	return bytes.NewReader(p.stdout)
}

// Stderr returns a reader over the stored stderr.
func (p *replayedProcess) Stderr() io.Reader {
	return bytes.NewReader(p.stderr)
}
