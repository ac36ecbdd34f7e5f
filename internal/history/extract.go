// Package history pulls the "Temperature history" difference readings out of
// a line printed by the Pico.
package history

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Marker is the phrase the device prints in front of its difference readings.
const Marker = "Temperature history"

var historyRe = regexp.MustCompile(regexp.QuoteMeta(Marker) + `:?([-\d\s]*)`)

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("malformed temperature history")

// ParseError reports a token in the captured run that is not a base-10 integer.
type ParseError struct {
	Token string
	Index int
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("temperature history token %d %q: %v", e.Index, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Extract returns the difference readings following the marker in line.
// ok is false when the marker does not appear at all. A marker with nothing
// numeric after it yields an empty, non-nil slice.
func Extract(line string) (diffs []int, ok bool, err error) {
	m := historyRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false, nil
	}

	fields := strings.Fields(m[1])
	diffs = make([]int, 0, len(fields))
	for i, tok := range fields {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, true, &ParseError{Token: tok, Index: i, Err: err}
		}
		diffs = append(diffs, v)
	}
	return diffs, true, nil
}
