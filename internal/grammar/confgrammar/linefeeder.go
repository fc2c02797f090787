// Package confgrammar implements the LineFeeder and statement recognizer
// for .conf-style files (spec §4.E): BSP/distro/machine/layer config and
// bitbake.conf itself. Grounded on ConfHandler.py's include_single_file
// continuation-joining loop and feeder() regex dispatch table.
package confgrammar

import (
	"bufio"
	"io"
	"strings"

	"github.com/standardbeagle/bbcore/internal/bberrors"
)

// LineFeeder reads a file and yields logical lines: physical lines joined
// across trailing backslash continuations, blank and pure-comment lines
// already filtered out.
type LineFeeder struct {
	sc       *bufio.Scanner
	filename string
	lineno   int
	done     bool
}

// NewLineFeeder wraps r, read from a file named filename (used only for
// error reporting).
func NewLineFeeder(r io.Reader, filename string) *LineFeeder {
	return &LineFeeder{sc: bufio.NewScanner(r), filename: filename}
}

func (f *LineFeeder) readPhysical() (string, bool) {
	if f.done || !f.sc.Scan() {
		f.done = true
		return "", false
	}
	f.lineno++
	return f.sc.Text(), true
}

// Next returns the next logical line and the line number its continuation
// ended on, or ok=false at EOF. It mirrors include_single_file's per-line
// loop: a line ending in '\' pulls in the next physical line, repeatedly,
// and a partially-commented continuation (the first physical line starts
// with '#' but a later one does not) is a FatalError.
func (f *LineFeeder) Next() (line string, lineno int, ok bool, err error) {
	for {
		raw, got := f.readPhysical()
		if !got {
			return "", 0, false, nil
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}

		s := raw
		origLineNo := f.lineno
		for strings.HasSuffix(s, "\\") {
			cont, got := f.readPhysical()
			if !got {
				return "", 0, false, bberrors.NewParseError(f.filename, origLineNo,
					"Leftover unparsed (incomplete line continuation?) data")
			}
			ambiguous := (strings.TrimSpace(cont) == "" || !strings.HasPrefix(strings.TrimSpace(cont), "#")) &&
				strings.HasPrefix(s, "#")
			if ambiguous {
				return "", 0, false, bberrors.NewFatalError(f.filename, origLineNo,
					"confusing multiline, partially commented expression")
			}
			s = s[:len(s)-1] + cont
		}

		if strings.HasPrefix(s, "#") {
			continue
		}

		return s, f.lineno, true, nil
	}
}
