package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rileyhilliard/execctx/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T, entries map[string]Entry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "commands.zip")

	w, err := Create(path)
	require.NoError(t, err)

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		require.NoError(t, w.Put(k, entries[k]))
	}
	require.NoError(t, w.Close())
	return path
}

func memberNames(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	members := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		members[f.Name] = string(data)
	}
	return members
}

func TestWriter_OnlyStoresNonDefaultParts(t *testing.T) {
	path := writeArchive(t, map[string]Entry{
		"echo hi": {Stdout: []byte("hi\n")},
		"1/false": {Stdout: []byte{}, Stderr: []byte("nope\n"), ExitCode: 1, NextState: "2/", HasNextState: true},
	})

	assert.Equal(t, map[string]string{
		"echo hi.out":   "hi\n",
		"1/false.out":   "",
		"1/false.err":   "nope\n",
		"1/false.exit":  "1",
		"1/false.state": "2/",
	}, memberNames(t, path))
}

func TestWriter_PutAfterClose(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "a.zip"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "second close is a no-op")

	err = w.Put("echo hi", Entry{Stdout: []byte("hi\n")})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrArchive))
}

func TestCreate_MissingDirectory(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing", "a.zip"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrArchive))
}

func TestReader_Lookup(t *testing.T) {
	path := writeArchive(t, map[string]Entry{
		"echo hi": {Stdout: []byte("hi\n")},
		"1/false": {Stdout: []byte{}, Stderr: []byte("nope\n"), ExitCode: 1, NextState: "2/", HasNextState: true},
	})

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	e, ok, err := r.Lookup("echo hi")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("hi\n"), e.Stdout)
	assert.Equal(t, []byte{}, e.Stderr)
	assert.Equal(t, 0, e.ExitCode)
	assert.False(t, e.HasNextState)

	e, ok, err = r.Lookup("1/false")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("nope\n"), e.Stderr)
	assert.Equal(t, 1, e.ExitCode)
	assert.True(t, e.HasNextState)
	assert.Equal(t, "2/", e.NextState)

	_, ok, err = r.Lookup("false")
	require.NoError(t, err)
	assert.False(t, ok, "entry under another state must not match")
}

func TestReader_EntryWithoutStdoutDoesNotExist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	mw, err := zw.Create("echo hi.err")
	require.NoError(t, err)
	_, err = mw.Write([]byte("orphan"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, ok, err := r.Lookup("echo hi")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReader_InvalidExitCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, data := range map[string]string{"x.out": "", "x.exit": "one"} {
		mw, err := zw.Create(name)
		require.NoError(t, err)
		_, err = mw.Write([]byte(data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, _, err = r.Lookup("x")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrArchive))
}

func TestReader_Entries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.zip")
	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Put(Key("", "xrandr -q"), Entry{Stdout: []byte("Screen 0\n"), NextState: "1/", HasNextState: true}))
	require.NoError(t, w.Put(Key("1/", "xrandr --output HDMI-1 --off"), Entry{Stdout: []byte{}, NextState: "2/", HasNextState: true}))
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	records, err := r.Entries()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "", records[0].State)
	assert.Equal(t, "xrandr -q", records[0].CommandLine)
	assert.Equal(t, "1/", records[0].NextState)

	assert.Equal(t, "1/", records[1].State)
	assert.Equal(t, "xrandr --output HDMI-1 --off", records[1].CommandLine)
	assert.Equal(t, "2/", records[1].NextState)
}

func TestReader_EntriesWithPlainStates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.zip")
	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Put(Key("", "a"), Entry{Stdout: []byte("A"), NextState: "setup", HasNextState: true}))
	require.NoError(t, w.Put(Key("setup", "b"), Entry{Stdout: []byte("B")}))
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	states, err := r.States()
	require.NoError(t, err)
	assert.Equal(t, []string{"", "setup"}, states)

	records, err := r.Entries()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "", records[0].State)
	assert.Equal(t, "a", records[0].CommandLine)
	assert.Equal(t, "setupb", records[1].Key)
	assert.Equal(t, "setup", records[1].State)
	assert.Equal(t, "b", records[1].CommandLine)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.zip"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrArchive))
}
