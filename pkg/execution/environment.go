package execution

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rileyhilliard/execctx/internal/errors"
	"github.com/rileyhilliard/execctx/internal/util"
)

// WithEnvironment forces preset environment variables on every call. Presets
// win over variables the caller passed under the same name.
type WithEnvironment struct {
	preset map[string]string
	inner  Context
}

// NewWithEnvironment wraps inner (Local when nil). The preset map is copied.
func NewWithEnvironment(preset map[string]string, inner Context) *WithEnvironment {
	return &WithEnvironment{preset: mergeEnv(nil, preset), inner: orLocal(inner)}
}

func (w *WithEnvironment) String() string {
	return fmt.Sprintf("WithEnvironment(%s) atop %s", strings.Join(util.SortedKeys(w.preset), ","), describe(w.inner))
}

func (w *WithEnvironment) Start(call Call) (Process, error) {
	call.Env = mergeEnv(call.Env, w.preset)
	return w.inner.Start(call)
}

// DisplayProbe lists the DISPLAY assignments of all processes visible to the
// shell it runs in, NUL separated and de-duplicated.
const DisplayProbe = `grep --no-filename --text --null-data "^DISPLAY=" /proc/*/environ 2>/dev/null |sort --zero-terminated --unique`

var (
	// ErrNoDisplay is returned when no process has DISPLAY set.
	ErrNoDisplay = errors.New(errors.ErrDisplay,
		"No usable X11 display was found",
		"Start an X session on the target machine, or set DISPLAY explicitly.")

	// ErrAmbiguousDisplay is returned when processes disagree about DISPLAY.
	ErrAmbiguousDisplay = errors.New(errors.ErrDisplay,
		"More than one X11 display found",
		"Set DISPLAY explicitly instead of relying on autodetection.")
)

// WithXEnvironment finds the running X display on first use and then behaves
// like WithEnvironment with {"DISPLAY": display}.
//
// Detection runs DisplayProbe through the inner context, so on top of an SSH
// context it finds the remote display, and programs are shown there rather
// than forwarded.
type WithXEnvironment struct {
	inner Context

	mu     sync.Mutex
	preset map[string]string
}

// NewWithXEnvironment wraps inner (Local when nil).
func NewWithXEnvironment(inner Context) *WithXEnvironment {
	return &WithXEnvironment{inner: orLocal(inner)}
}

func (x *WithXEnvironment) String() string {
	return fmt.Sprintf("WithXEnvironment atop %s", describe(x.inner))
}

func (x *WithXEnvironment) Start(call Call) (Process, error) {
	preset, err := x.environment()
	if err != nil {
		return nil, err
	}
	call.Env = mergeEnv(call.Env, preset)
	return x.inner.Start(call)
}

// environment detects the display once; failures are not cached.
func (x *WithXEnvironment) environment() (map[string]string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.preset != nil {
		return x.preset, nil
	}

	display, err := DetectDisplay(x.inner)
	if err != nil {
		return nil, err
	}
	x.preset = map[string]string{"DISPLAY": display}
	return x.preset, nil
}

// DetectDisplay runs DisplayProbe through c and returns the single display in
// use.
func DetectDisplay(c Context) (string, error) {
	out, err := Execute(c, ShellCommand(DisplayProbe)).Read()
	if err != nil {
		return "", err
	}
	return ParseDisplays(out)
}

// ParseDisplays picks the display out of NUL-separated DISPLAY=value records.
// A trailing ".0" screen number is the default and is dropped before
// comparing, so ":0" and ":0.0" count as the same display.
func ParseDisplays(out []byte) (string, error) {
	seen := make(map[string]bool)
	for _, record := range bytes.Split(out, []byte{0}) {
		if len(record) == 0 {
			continue
		}
		_, value, ok := strings.Cut(string(record), "=")
		if !ok {
			continue
		}
		seen[strings.TrimSuffix(value, ".0")] = true
	}

	switch len(seen) {
	case 0:
		return "", ErrNoDisplay
	case 1:
		for display := range seen {
			return display, nil
		}
	}

	displays := make([]string, 0, len(seen))
	for d := range seen {
		displays = append(displays, d)
	}
	sort.Strings(displays)
	return "", errors.WrapWithCode(ErrAmbiguousDisplay, errors.ErrDisplay,
		fmt.Sprintf("Found %d X11 displays: %s", len(displays), strings.Join(displays, ", ")),
		"Set DISPLAY explicitly instead of relying on autodetection.")
}

// InDirectory forces the working directory of every call.
type InDirectory struct {
	dir   string
	inner Context
}

// NewInDirectory wraps inner (Local when nil).
func NewInDirectory(dir string, inner Context) *InDirectory {
	return &InDirectory{dir: dir, inner: orLocal(inner)}
}

func (d *InDirectory) String() string {
	return fmt.Sprintf("InDirectory(%s) atop %s", d.dir, describe(d.inner))
}

func (d *InDirectory) Start(call Call) (Process, error) {
	call.Dir = d.dir
	return d.inner.Start(call)
}
