package execution

import (
	"bytes"
	"fmt"

	"github.com/rileyhilliard/execctx/internal/errors"
	"github.com/rileyhilliard/execctx/internal/logger"
)

// Managed is one command started through a context, with helpers that
// collect its result and check it.
type Managed struct {
	call Call
	proc Process
	err  error
	log  logger.Logger
}

// Execute starts call through c. A failure to start is reported by the read
// methods, so the result can be used in a single expression.
func Execute(c Context, call Call) *Managed {
	proc, err := c.Start(call)
	return &Managed{call: call, proc: proc, err: err, log: logger.Default()}
}

// WithLogger sets where Read reports unexpected stderr output.
func (m *Managed) WithLogger(log logger.Logger) *Managed {
	m.log = log
	return m
}

func (m *Managed) String() string {
	return fmt.Sprintf("Process %q", m.call.Args)
}

// ReadWithError returns the collected output and exit code without judging
// them.
func (m *Managed) ReadWithError() (stdout, stderr []byte, exitCode int, err error) {
	if m.err != nil {
		return nil, nil, -1, m.err
	}
	if stdout, stderr, err = m.proc.Communicate(); err != nil {
		return nil, nil, -1, err
	}
	if exitCode, err = m.proc.Wait(); err != nil {
		return nil, nil, -1, err
	}
	return stdout, stderr, exitCode, nil
}

// Read returns stdout and fails when the command exited non-zero. Output on
// stderr alone is only logged as a warning.
func (m *Managed) Read() ([]byte, error) {
	stdout, stderr, exitCode, err := m.ReadWithError()
	if err != nil {
		return nil, err
	}
	if exitCode != 0 {
		return nil, m.exitError(exitCode, stderr)
	}
	if len(stderr) > 0 {
		m.log.Warn("%s had output to stderr, but did not report an error (message was: %q)", m, stderr)
	}
	return stdout, nil
}

// ReadParanoid is Read with any stderr output treated as failure.
func (m *Managed) ReadParanoid() ([]byte, error) {
	stdout, stderr, exitCode, err := m.ReadWithError()
	if err != nil {
		return nil, err
	}
	if exitCode != 0 || len(stderr) > 0 {
		return nil, m.exitError(exitCode, stderr)
	}
	return stdout, nil
}

func (m *Managed) exitError(exitCode int, stderr []byte) error {
	return errors.WrapWithCode(errors.NewExitError(exitCode), errors.ErrExec,
		fmt.Sprintf("%s failed with exit code %d", m, exitCode),
		string(bytes.TrimSpace(stderr)))
}
