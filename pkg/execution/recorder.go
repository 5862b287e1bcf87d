package execution

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/rileyhilliard/execctx/internal/archive"
)

// Recorder forwards calls to its inner context and stores each result in a
// zip archive that a Player can answer from later.
//
// With storeStates set, every call moves the archive to a new numbered state
// ("1/", "2/", ...), so the archive can only be replayed in recording order.
// Without it all commands are assumed to be free of side effects and the
// archive is flat. Call.NextState overrides either choice per call.
//
// A result is stored when its process is waited on or communicated with.
// The Recorder must be closed afterwards; unclosed archives are unreadable.
type Recorder struct {
	inner       Context
	archive     *archive.Writer
	storeStates bool

	current string
	counter int
}

// NewRecorder creates the archive at path and records calls going to inner
// (Local when nil).
func NewRecorder(path string, storeStates bool, inner Context) (*Recorder, error) {
	w, err := archive.Create(path)
	if err != nil {
		return nil, err
	}
	return &Recorder{inner: orLocal(inner), archive: w, storeStates: storeStates}, nil
}

func (r *Recorder) String() string {
	return fmt.Sprintf("Recorder(%s) atop %s", r.archive.Path(), describe(r.inner))
}

// State returns the state the next call will be recorded under.
func (r *Recorder) State() string {
	return r.current
}

func (r *Recorder) Start(call Call) (Process, error) {
	base := r.current
	next := base
	counter := r.counter

	switch {
	case call.NextState != nil:
		next = *call.NextState
	case r.storeStates:
		counter++
		next = strconv.Itoa(counter) + "/"
	}

	forwarded := call
	forwarded.NextState = nil
	p, err := r.inner.Start(forwarded)
	if err != nil {
		return nil, err
	}

	r.counter = counter
	r.current = next

	return &recordedProcess{
		inner:   p,
		archive: r.archive,
		key:     archive.Key(base, call.CommandLine()),
		base:    base,
		next:    next,
	}, nil
}

// Close flushes the archive.
func (r *Recorder) Close() error {
	return r.archive.Close()
}

// recordedProcess stores its result the first time it completes.
type recordedProcess struct {
	inner   Process
	archive *archive.Writer
	key     string
	base    string
	next    string

	once     sync.Once
	stdout   []byte
	stderr   []byte
	exitCode int
	err      error
}

func (p *recordedProcess) Wait() (int, error) {
	p.once.Do(p.finish)
	return p.exitCode, p.err
}

func (p *recordedProcess) Communicate() ([]byte, []byte, error) {
	p.once.Do(p.finish)
	return p.stdout, p.stderr, p.err
}

func (p *recordedProcess) finish() {
	p.stdout, p.stderr, p.err = p.inner.Communicate()
	if p.err != nil {
		return
	}
	p.exitCode, p.err = p.inner.Wait()
	if p.err != nil {
		return
	}
	p.err = p.archive.Put(p.key, archive.Entry{
		Stdout:       p.stdout,
		Stderr:       p.stderr,
		ExitCode:     p.exitCode,
		NextState:    p.next,
		HasNextState: p.next != p.base,
	})
}
