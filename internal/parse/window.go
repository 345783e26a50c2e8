package parse

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// TimeLayout is the fixed payload format carried by start/end markers:
// two-digit year, 24-hour clock, e.g. "25-07-01:14-30".
const TimeLayout = "06-01-02:15-04"

// ErrMalformed marks any violation of the availability token format. Errors
// returned by this package wrap it, so callers match with errors.Is.
var ErrMalformed = errors.New("malformed availability input")

var markerRe = regexp.MustCompile(`^(start|end):(\d{2}-\d{2}-\d{2}:\d{2}-\d{2})$`)

// Window is one validated (start, end) availability pair, UTC, end > start.
type Window struct {
	Start time.Time
	End   time.Time
}

// Windows converts a token sequence into matched (start, end) pairs, in input
// order: the i-th start marker pairs with the i-th end marker. It fails, and
// returns no windows at all, when the token count is not a positive even
// number, a marker does not match the expected pattern, markers are out of
// order, or an end does not fall strictly after its paired start.
func Windows(tokens []string) ([]Window, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: no time markers given", ErrMalformed)
	}
	if len(tokens)%2 != 0 {
		return nil, fmt.Errorf("%w: expected start/end pairs, got %d markers", ErrMalformed, len(tokens))
	}

	windows := make([]Window, 0, len(tokens)/2)
	for i := 0; i < len(tokens); i += 2 {
		start, err := instant(tokens[i], "start")
		if err != nil {
			return nil, err
		}
		end, err := instant(tokens[i+1], "end")
		if err != nil {
			return nil, err
		}
		if !end.After(start) {
			return nil, fmt.Errorf("%w: window %d ends at or before its start (%s >= %s)",
				ErrMalformed, i/2+1, start.Format(TimeLayout), end.Format(TimeLayout))
		}
		windows = append(windows, Window{Start: start, End: end})
	}
	return windows, nil
}

// instant validates a single marker against the expected label and parses its
// payload as a UTC instant.
func instant(token, label string) (time.Time, error) {
	m := markerRe.FindStringSubmatch(token)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q does not match <label>:<YY>-<MM>-<DD>:<HH>-<MM>", ErrMalformed, token)
	}
	if m[1] != label {
		return time.Time{}, fmt.Errorf("%w: expected a %s marker, got %q", ErrMalformed, label, token)
	}
	t, err := time.ParseInLocation(TimeLayout, m[2], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid timestamp in %q: %v", ErrMalformed, token, err)
	}
	return t, nil
}
