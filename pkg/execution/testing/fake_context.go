// Package testing provides test doubles for the execution package.
package testing

import (
	"sync"

	"github.com/rileyhilliard/execctx/pkg/execution"
)

// Result is the canned outcome of one command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// FakeContext records every call it receives and answers from Results,
// keyed by the call's command line. Unknown commands succeed with no output.
type FakeContext struct {
	mu sync.Mutex

	// Results maps command lines to their outcome.
	Results map[string]Result

	// StartError, when set, is returned by every Start.
	StartError error

	// Calls holds the received calls in order.
	Calls []execution.Call
}

// NewFakeContext creates a FakeContext with the given results.
func NewFakeContext(results map[string]Result) *FakeContext {
	if results == nil {
		results = make(map[string]Result)
	}
	return &FakeContext{Results: results}
}

func (f *FakeContext) String() string {
	return "fake"
}

// Start records call and returns a FakeProcess for it.
func (f *FakeContext) Start(call execution.Call) (execution.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, call)
	if f.StartError != nil {
		return nil, f.StartError
	}
	return &FakeProcess{Result: f.Results[call.CommandLine()]}, nil
}

// LastCall returns the most recent call, or false when there was none.
func (f *FakeContext) LastCall() (execution.Call, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Calls) == 0 {
		return execution.Call{}, false
	}
	return f.Calls[len(f.Calls)-1], true
}

// CallCount returns how many calls were received.
func (f *FakeContext) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// FakeProcess is an already finished process.
type FakeProcess struct {
	Result

	// Waits and Communicates count how often each method was called.
	Waits        int
	Communicates int
}

func (p *FakeProcess) Wait() (int, error) {
	p.Waits++
	return p.ExitCode, nil
}

func (p *FakeProcess) Communicate() ([]byte, []byte, error) {
	p.Communicates++
	return p.Stdout, p.Stderr, nil
}
