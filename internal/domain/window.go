package domain

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire format for window bounds.
const DateLayout = "2006-01-02"

// ErrInvalidWindow is returned when a window's start is after its end.
var ErrInvalidWindow = errors.New("invalid date window")

// Window restricts enrichment to memos created within an inclusive range of
// calendar days. Either bound may be nil, leaving that side open.
type Window struct {
	From *time.Time
	To   *time.Time

	// Location defines day boundaries. Nil means UTC.
	Location *time.Location
}

// ParseWindow builds a Window from YYYY-MM-DD strings. Empty strings leave the
// corresponding bound open; when both are empty the result is nil.
func ParseWindow(from, to string, loc *time.Location) (*Window, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	w := &Window{Location: loc}
	if from != "" {
		t, err := time.ParseInLocation(DateLayout, from, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: from %q: %v", ErrInvalidFormat, from, err)
		}
		w.From = &t
	}
	if to != "" {
		t, err := time.ParseInLocation(DateLayout, to, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: to %q: %v", ErrInvalidFormat, to, err)
		}
		w.To = &t
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// Validate checks that the window is not inverted. A nil window is valid.
func (w *Window) Validate() error {
	if w == nil || w.From == nil || w.To == nil {
		return nil
	}
	start, end := w.Bounds()
	if !start.Before(end) {
		return fmt.Errorf("%w: from %s is after to %s",
			ErrInvalidWindow, w.From.Format(DateLayout), w.To.Format(DateLayout))
	}
	return nil
}

// Bounds returns the half-open instant range [start, end) covered by the
// window: start of the From day through the end of the To day. Open sides
// are returned as zero times.
func (w *Window) Bounds() (start, end time.Time) {
	if w == nil {
		return time.Time{}, time.Time{}
	}
	loc := w.Location
	if loc == nil {
		loc = time.UTC
	}
	if w.From != nil {
		start = startOfDay(*w.From, loc)
	}
	if w.To != nil {
		end = startOfDay(*w.To, loc).AddDate(0, 0, 1)
	}
	return start, end
}

// Contains reports whether t falls within the window. A nil window contains
// every instant.
func (w *Window) Contains(t time.Time) bool {
	start, end := w.Bounds()
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && !t.Before(end) {
		return false
	}
	return true
}

// String renders the window for logs.
func (w *Window) String() string {
	if w == nil {
		return "all"
	}
	from, to := "*", "*"
	if w.From != nil {
		from = w.From.Format(DateLayout)
	}
	if w.To != nil {
		to = w.To.Format(DateLayout)
	}
	return from + ".." + to
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
