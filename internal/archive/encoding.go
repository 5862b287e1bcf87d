package archive

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rileyhilliard/execctx/internal/errors"
)

const (
	maxLineSize = 76
	hexDigits   = "0123456789ABCDEF"
)

// EncodeCommand turns a shell command line into the file name component used
// for archive entries.
//
// The command is quoted-printable encoded (text mode, tabs and spaces kept
// literal except at line ends), soft line breaks are removed again, and every
// "/" is written as "=2F" so the result never looks like a zip directory.
// This is an escaping, not a normalization: commands that only differ in
// their quoting get different names.
func EncodeCommand(cmd string) string {
	data := []byte(cmd)

	crlf := false
	if i := bytes.IndexByte(data, '\n'); i > 0 && data[i-1] == '\r' {
		crlf = true
	}

	out := make([]byte, 0, len(data))
	lineLen := 0
	softBreak := func() {
		out = append(out, '=')
		if crlf {
			out = append(out, '\r')
		}
		out = append(out, '\n')
		lineLen = 0
	}

	for in := 0; in < len(data); {
		c := data[in]

		if needsEscape(data, in, lineLen) {
			if lineLen+3 >= maxLineSize {
				softBreak()
			}
			out = append(out, '=', hexDigits[c>>4], hexDigits[c&0x0f])
			in++
			lineLen += 3
			continue
		}

		if c == '\n' || (c == '\r' && in+1 < len(data) && data[in+1] == '\n') {
			lineLen = 0
			// whitespace right before a line end must be encoded
			if n := len(out); n > 0 && (out[n-1] == ' ' || out[n-1] == '\t') {
				ws := out[n-1]
				out[n-1] = '='
				out = append(out, hexDigits[ws>>4], hexDigits[ws&0x0f])
			}
			if crlf {
				out = append(out, '\r')
			}
			out = append(out, '\n')
			if c == '\r' {
				in += 2
			} else {
				in++
			}
			continue
		}

		if in+1 != len(data) && data[in+1] != '\n' && lineLen+1 >= maxLineSize {
			softBreak()
		}
		lineLen++
		out = append(out, c)
		in++
	}

	encoded := strings.ReplaceAll(string(out), "=\n", "")
	return strings.ReplaceAll(encoded, "/", "=2F")
}

func needsEscape(data []byte, in, lineLen int) bool {
	c := data[in]
	last := in+1 == len(data)

	switch {
	case c > 126, c == '=':
		return true
	case c == '.' && lineLen == 0:
		return last || data[in+1] == '\n' || data[in+1] == '\r' || data[in+1] == 0
	case c == ' ', c == '\t':
		return last
	case c < 33:
		return c != '\r' && c != '\n'
	}
	return false
}

// DecodeCommand undoes EncodeCommand for display. Line ends do not survive
// the round trip exactly: they all come back as the style of the first line
// end in the original command ("\r\n" if it was one, "\n" otherwise).
func DecodeCommand(name string) (string, error) {
	var out bytes.Buffer
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c != '=' {
			out.WriteByte(c)
			continue
		}

		rest := name[i+1:]
		switch {
		case strings.HasPrefix(rest, "\r\n"):
			i += 2
		case strings.HasPrefix(rest, "\n"):
			i++
		case len(rest) >= 2 && isHex(rest[0]) && isHex(rest[1]):
			out.WriteByte(unhex(rest[0])<<4 | unhex(rest[1]))
			i += 2
		default:
			return "", errors.New(errors.ErrArchive,
				fmt.Sprintf("Malformed escape at offset %d in archive name %q", i, name),
				"The archive was not written by execctx or is corrupted.")
		}
	}
	return out.String(), nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// Key is the archive name shared by all parts of one entry: the state token
// active when the command ran followed by the encoded command line.
func Key(state, commandLine string) string {
	return state + EncodeCommand(commandLine)
}

// SplitKey separates a key into its state token and decoded command line.
// States are uninterpreted prefixes, so the key is split on the longest of
// the given states it starts with; the initial state "" always matches.
func SplitKey(key string, states []string) (state, commandLine string, err error) {
	for _, s := range states {
		if len(s) > len(state) && strings.HasPrefix(key, s) {
			state = s
		}
	}
	commandLine, err = DecodeCommand(key[len(state):])
	return state, commandLine, err
}
