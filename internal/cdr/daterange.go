package cdr

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrInvalidDateRange  = errors.New("invalid date range")
)

// Accepted layouts, tried in order. A trailing Z means UTC; everything else is read as UTC too.
const (
	layoutDate      = "2006-01-02"
	layoutDateTime  = "2006-01-02T15:04:05"
	layoutDateTimeZ = "2006-01-02T15:04:05Z"
)

// DateFormatError reports an unparsable date query parameter.
type DateFormatError struct {
	Param string
	Value string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("invalid date format for %s: %q (expected YYYY-MM-DD, YYYY-MM-DDTHH:MM:SS or YYYY-MM-DDTHH:MM:SSZ)", e.Param, e.Value)
}

func (e *DateFormatError) Is(target error) bool { return target == ErrInvalidDateFormat }

// Window bounds call-date sampling. Each side is bounded only when its Set flag is true,
// so any instant, the zero time included, is a valid bound.
type Window struct {
	Start    time.Time
	End      time.Time
	StartSet bool
	EndSet   bool
}

// Between returns a window bounded on both sides.
func Between(start, end time.Time) Window {
	return Window{Start: start, End: end, StartSet: true, EndSet: true}
}

// Since returns a window with only a lower bound.
func Since(start time.Time) Window { return Window{Start: start, StartSet: true} }

// Until returns a window with only an upper bound.
func Until(end time.Time) Window { return Window{End: end, EndSet: true} }

func (w Window) HasStart() bool { return w.StartSet }
func (w Window) HasEnd() bool   { return w.EndSet }

// Contains reports whether t falls inside the bounds that are set.
func (w Window) Contains(t time.Time) bool {
	if w.HasStart() && t.Before(w.Start) {
		return false
	}
	if w.HasEnd() && t.After(w.End) {
		return false
	}
	return true
}

// ParseDate parses a user-supplied date. An empty value yields ok == false and no error.
// When endOfDay is set, a date-only value is moved to 23:59:59 so it covers the whole day.
func ParseDate(param, value string, endOfDay bool) (t time.Time, ok bool, err error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false, nil
	}

	if d, err := time.ParseInLocation(layoutDate, v, time.UTC); err == nil {
		if endOfDay {
			d = d.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		}
		return d, true, nil
	}
	if d, err := time.ParseInLocation(layoutDateTimeZ, v, time.UTC); err == nil {
		return d, true, nil
	}
	if d, err := time.ParseInLocation(layoutDateTime, v, time.UTC); err == nil {
		return d, true, nil
	}
	return time.Time{}, false, &DateFormatError{Param: param, Value: value}
}

// ParseRange parses both bounds of a window and rejects start > end.
func ParseRange(startParam, start, endParam, end string) (Window, error) {
	var w Window

	s, ok, err := ParseDate(startParam, start, false)
	if err != nil {
		return Window{}, err
	}
	if ok {
		w.Start, w.StartSet = s, true
	}

	e, ok, err := ParseDate(endParam, end, true)
	if err != nil {
		return Window{}, err
	}
	if ok {
		w.End, w.EndSet = e, true
	}

	if w.HasStart() && w.HasEnd() && w.Start.After(w.End) {
		return Window{}, fmt.Errorf("%w: %s is after %s", ErrInvalidDateRange, startParam, endParam)
	}
	return w, nil
}
