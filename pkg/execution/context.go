package execution

import "fmt"

// Context starts commands.
//
// Start returns once the command is running (or, for synthetic contexts,
// once its result is known). Completion is observed through the returned
// Process. A wrapping context either fails before delegating or returns
// exactly what its inner context returned, errors included.
type Context interface {
	Start(call Call) (Process, error)
}

// Process is the handle to a started command.
type Process interface {
	// Wait blocks until the command has finished and returns its exit
	// code. Commands killed by a signal report the negated signal number.
	Wait() (int, error)

	// Communicate blocks until the command has finished and returns the
	// collected stdout and stderr. Streams that were not piped come back nil.
	Communicate() (stdout, stderr []byte, err error)
}

// describe renders a context for log output.
func describe(c Context) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", c)
}

// orLocal substitutes Local for a nil inner context.
func orLocal(c Context) Context {
	if c == nil {
		return Local{}
	}
	return c
}
