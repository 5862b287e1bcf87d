// Package archive implements the zip file format that stores recorded command
// results.
//
// Each recorded command is a group of zip members sharing one name prefix
// (see Key), discerned by suffix:
//
//	<key>.out    stdout; required, its presence marks the entry as existing
//	<key>.err    stderr; absent means empty
//	<key>.exit   decimal exit code; absent means 0
//	<key>.state  next state token; absent means the state does not change
//
// States are ASCII strings, conventionally ending in "/" ("1/", "2/", ...),
// but any prefix works.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rileyhilliard/execctx/internal/errors"
)

// Member name suffixes.
const (
	SuffixStdout = ".out"
	SuffixStderr = ".err"
	SuffixExit   = ".exit"
	SuffixState  = ".state"
)

// Entry is the stored result of one command.
type Entry struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int

	// NextState is only meaningful when HasNextState is set.
	NextState    string
	HasNextState bool
}

// Writer appends entries to a new archive. It must be closed; entries still
// buffered at that point are lost otherwise.
type Writer struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	zw     *zip.Writer
	closed bool
}

// Create truncates or creates the archive at path.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrArchive,
			fmt.Sprintf("Couldn't create archive %s", path),
			"Check that the directory exists and is writable.")
	}
	return &Writer{path: path, file: f, zw: zip.NewWriter(f)}, nil
}

// Path returns the file the writer was created on.
func (w *Writer) Path() string {
	return w.path
}

// Put writes the members for one entry. Only non-default parts are stored.
func (w *Writer) Put(key string, e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New(errors.ErrArchive,
			fmt.Sprintf("Archive %s is already closed", w.path),
			"Results must be collected before the recorder is closed.")
	}

	if err := w.writeMember(key+SuffixStdout, e.Stdout); err != nil {
		return err
	}
	if len(e.Stderr) > 0 {
		if err := w.writeMember(key+SuffixStderr, e.Stderr); err != nil {
			return err
		}
	}
	if e.ExitCode != 0 {
		if err := w.writeMember(key+SuffixExit, []byte(strconv.Itoa(e.ExitCode))); err != nil {
			return err
		}
	}
	if e.HasNextState {
		if err := w.writeMember(key+SuffixState, []byte(e.NextState)); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeMember(name string, data []byte) error {
	mw, err := w.zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err == nil {
		_, err = mw.Write(data)
	}
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrArchive,
			fmt.Sprintf("Couldn't write %s to archive %s", name, w.path),
			"Check free disk space.")
	}
	return nil
}

// Close finalizes the zip directory and closes the file. It is safe to call
// more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	zipErr := w.zw.Close()
	fileErr := w.file.Close()
	if zipErr != nil {
		return errors.WrapWithCode(zipErr, errors.ErrArchive,
			fmt.Sprintf("Couldn't finalize archive %s", w.path), "")
	}
	if fileErr != nil {
		return errors.WrapWithCode(fileErr, errors.ErrArchive,
			fmt.Sprintf("Couldn't close archive %s", w.path), "")
	}
	return nil
}

// Reader looks up entries in an existing archive. Members are only read when
// asked for.
type Reader struct {
	path    string
	zr      *zip.ReadCloser
	members map[string]*zip.File
	keys    []string
}

// Open opens the archive at path read-only.
func Open(path string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrArchive,
			fmt.Sprintf("Couldn't open archive %s", path),
			"Make sure the file exists and was closed properly when it was recorded.")
	}

	r := &Reader{path: path, zr: zr, members: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, SuffixStdout) {
			key := strings.TrimSuffix(f.Name, SuffixStdout)
			if _, seen := r.members[f.Name]; !seen {
				r.keys = append(r.keys, key)
			}
		}
		// later members shadow earlier ones with the same name
		r.members[f.Name] = f
	}
	return r, nil
}

// Path returns the file the reader was opened on.
func (r *Reader) Path() string {
	return r.path
}

// Lookup returns the entry stored under key. The boolean is false when no
// stdout member exists for it.
func (r *Reader) Lookup(key string) (Entry, bool, error) {
	stdout, ok, err := r.member(key + SuffixStdout)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	e := Entry{Stdout: stdout, Stderr: []byte{}}

	stderr, ok, err := r.member(key + SuffixStderr)
	if err != nil {
		return Entry{}, false, err
	}
	if ok {
		e.Stderr = stderr
	}

	exit, ok, err := r.member(key + SuffixExit)
	if err != nil {
		return Entry{}, false, err
	}
	if ok {
		code, convErr := strconv.Atoi(strings.TrimSpace(string(exit)))
		if convErr != nil {
			return Entry{}, false, errors.WrapWithCode(convErr, errors.ErrArchive,
				fmt.Sprintf("Invalid exit code stored for %q in %s", key, r.path),
				"The .exit member must contain a decimal integer.")
		}
		e.ExitCode = code
	}

	state, ok, err := r.member(key + SuffixState)
	if err != nil {
		return Entry{}, false, err
	}
	if ok {
		e.NextState = string(state)
		e.HasNextState = true
	}

	return e, true, nil
}

func (r *Reader) member(name string) ([]byte, bool, error) {
	f, ok := r.members[name]
	if !ok {
		return nil, false, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, false, r.readError(name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, r.readError(name, err)
	}
	return data, true, nil
}

func (r *Reader) readError(name string, err error) error {
	return errors.WrapWithCode(err, errors.ErrArchive,
		fmt.Sprintf("Couldn't read %s from archive %s", name, r.path),
		"The archive may be truncated or corrupted.")
}

// Record is one entry together with the key it is stored under.
type Record struct {
	Key         string
	State       string
	CommandLine string
	Entry
}

// States returns every state the archive can reach: the initial state ""
// followed by the distinct contents of all .state members.
func (r *Reader) States() ([]string, error) {
	states := []string{""}
	seen := map[string]bool{"": true}
	for _, key := range r.keys {
		next, ok, err := r.member(key + SuffixState)
		if err != nil {
			return nil, err
		}
		if ok && !seen[string(next)] {
			seen[string(next)] = true
			states = append(states, string(next))
		}
	}
	return states, nil
}

// Entries returns every entry in the order it was first written.
func (r *Reader) Entries() ([]Record, error) {
	states, err := r.States()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(r.keys))
	for _, key := range r.keys {
		state, cmdline, err := SplitKey(key, states)
		if err != nil {
			return nil, err
		}
		e, _, err := r.Lookup(key)
		if err != nil {
			return nil, err
		}
		records = append(records, Record{Key: key, State: state, CommandLine: cmdline, Entry: e})
	}
	return records, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.zr.Close()
}
