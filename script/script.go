// Package script reads and writes input scripts: one line per run of
// identical consecutive inputs, formatted "<count>,<label>,<angle>".
package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pthm-cable/maunakea/player"
)

// ErrMalformedScript is returned by Parse for lines it cannot read.
var ErrMalformedScript = errors.New("malformed script")

// Group is a run of identical consecutive inputs.
type Group struct {
	Count int
	Angle player.Angle
}

// Groups collapses inputs into runs.
func Groups(inputs []player.Angle) []Group {
	var out []Group
	for _, a := range inputs {
		if n := len(out); n > 0 && out[n-1].Angle == a {
			out[n-1].Count++
			continue
		}
		out = append(out, Group{Count: 1, Angle: a})
	}
	return out
}

// Encode writes inputs as a script.
func Encode(w io.Writer, label string, inputs []player.Angle) error {
	return EncodePartial(w, label, inputs, "")
}

// EncodePartial writes inputs preceded by a "# note" comment line. An empty
// note writes no comment.
func EncodePartial(w io.Writer, label string, inputs []player.Angle, note string) error {
	bw := bufio.NewWriter(w)
	if note != "" {
		fmt.Fprintf(bw, "# %s\n", note)
	}
	for _, g := range Groups(inputs) {
		fmt.Fprintf(bw, "%d,%s,%s\n", g.Count, label, g.Angle)
	}
	return bw.Flush()
}

// Format returns the script for inputs as a string.
func Format(label string, inputs []player.Angle) string {
	var sb strings.Builder
	_ = Encode(&sb, label, inputs)
	return sb.String()
}

// Script is a parsed script.
type Script struct {
	Label  string
	Inputs []player.Angle
	Note   string // text of the first comment line, if any
}

// Parse reads a script written by Encode or EncodePartial. Blank lines are
// skipped; every line must carry the same label.
func Parse(r io.Reader) (*Script, error) {
	s := &Script{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if note, ok := strings.CutPrefix(text, "#"); ok {
			if s.Note == "" {
				s.Note = strings.TrimSpace(note)
			}
			continue
		}

		fields := strings.Split(text, ",")
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: line %d: want 3 fields, got %d", ErrMalformedScript, line, len(fields))
		}
		count, err := strconv.Atoi(fields[0])
		if err != nil || count < 1 {
			return nil, fmt.Errorf("%w: line %d: bad count %q", ErrMalformedScript, line, fields[0])
		}
		label := fields[1]
		if s.Inputs == nil {
			s.Label = label
		} else if label != s.Label {
			return nil, fmt.Errorf("%w: line %d: label %q differs from %q", ErrMalformedScript, line, label, s.Label)
		}
		a, err := player.ParseAngle(fields[2])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedScript, line, err)
		}
		for range count {
			s.Inputs = append(s.Inputs, a)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return s, nil
}
