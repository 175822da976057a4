package cdr

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestFactory(seed uint64) *Factory {
	return NewFactory(
		WithSequence(NewSequence(DefaultRecordBase)),
		WithClock(func() time.Time { return fixedNow }),
		WithRand(rand.New(rand.NewPCG(seed, seed+1))),
	)
}

func callDate(t *testing.T, r CallRecord) time.Time {
	t.Helper()
	d, err := time.ParseInLocation(CallDateLayout, r.CallDate, time.UTC)
	if err != nil {
		t.Fatalf("bad Call_date %q: %v", r.CallDate, err)
	}
	return d
}

func TestFactory_Invariants(t *testing.T) {
	f := newTestFactory(1)
	sawUnanswered := false
	for i := 0; i < 20000; i++ {
		r := f.Generate(Window{})

		if (r.Unanswer == "1") != (r.Duration == 0) {
			t.Fatalf("unanswer/duration mismatch: %+v", r)
		}
		if r.Duration == 0 {
			sawUnanswered = true
			if r.CallCost != 0 || r.CallExperienceRating != "0" {
				t.Fatalf("unanswered call carries cost or rating: %+v", r)
			}
		}
		if r.Direction == DirectionOutbound && r.RingTime != 0 {
			t.Fatalf("outbound call has ring time: %+v", r)
		}
		if !IsDirection(r.Direction) {
			t.Fatalf("unknown direction %q", r.Direction)
		}
		if r.CallCost < 0 || r.CallCost > 5 {
			t.Fatalf("cost out of range: %v", r.CallCost)
		}
		total, _ := strconv.Atoi(r.TotalDuration)
		if total < r.Duration+r.RingTime || total > r.Duration+r.RingTime+maxTotalJitter {
			t.Fatalf("total duration %d inconsistent with %+v", total, r)
		}
	}
	if !sawUnanswered {
		t.Fatalf("expected at least one unanswered call in 20000 draws")
	}
}

func TestFactory_RecordIDsStrictlyIncrease(t *testing.T) {
	f := newTestFactory(2)
	prev := f.Sequence().Last()
	for i := 0; i < 100; i++ {
		r := f.Generate(Window{})
		if r.RecordID <= prev {
			t.Fatalf("record id %d not greater than %d", r.RecordID, prev)
		}
		prev = r.RecordID
	}
	if first := newTestFactory(3).Generate(Window{}).RecordID; first != DefaultRecordBase+1 {
		t.Fatalf("expected first id %d, got %d", DefaultRecordBase+1, first)
	}
}

func TestFactory_DegenerateWindow(t *testing.T) {
	f := newTestFactory(4)
	at := time.Date(2025, 3, 1, 8, 15, 30, 0, time.UTC)
	for i := 0; i < 50; i++ {
		if got := callDate(t, f.Generate(Between(at, at))); !got.Equal(at) {
			t.Fatalf("expected %s, got %s", at, got)
		}
	}
}

func TestFactory_DateOnlyRangeIsInclusive(t *testing.T) {
	w, err := ParseRange("startDate", "2025-01-01", "endDate", "2025-01-03")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	lo := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	hi := time.Date(2025, 1, 3, 23, 59, 59, 0, time.UTC)

	f := newTestFactory(5)
	for i := 0; i < 2000; i++ {
		got := callDate(t, f.Generate(w))
		if got.Before(lo) || got.After(hi) {
			t.Fatalf("call date %s outside [%s, %s]", got, lo, hi)
		}
	}
}

func TestFactory_StartOnly(t *testing.T) {
	f := newTestFactory(6)
	start := fixedNow.Add(-48 * time.Hour)
	for i := 0; i < 500; i++ {
		got := callDate(t, f.Generate(Since(start)))
		if got.Before(start) || got.After(fixedNow) {
			t.Fatalf("call date %s outside [%s, %s]", got, start, fixedNow)
		}
	}

	future := fixedNow.Add(24 * time.Hour)
	if got := callDate(t, f.Generate(Since(future))); !got.Equal(future) {
		t.Fatalf("future start should pin to start, got %s", got)
	}
}

func TestFactory_EndOnlyLooksBackThirtyDays(t *testing.T) {
	f := newTestFactory(7)
	end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	lo := end.Add(-30 * 24 * time.Hour)
	for i := 0; i < 500; i++ {
		got := callDate(t, f.Generate(Until(end)))
		if got.Before(lo) || got.After(end) {
			t.Fatalf("call date %s outside [%s, %s]", got, lo, end)
		}
	}
}

func TestFactory_DefaultWindowIsLastHour(t *testing.T) {
	f := newTestFactory(8)
	lo := fixedNow.Add(-time.Hour)
	for i := 0; i < 500; i++ {
		got := callDate(t, f.Generate(Window{}))
		if got.Before(lo) || got.After(fixedNow) {
			t.Fatalf("call date %s outside last hour", got)
		}
	}
}

func TestFactory_FieldShapes(t *testing.T) {
	f := newTestFactory(9)
	for i := 0; i < 200; i++ {
		r := f.Generate(Window{})

		if !strings.HasPrefix(r.Number, "+33") || len(r.Number) != 12 {
			t.Fatalf("unexpected number %q", r.Number)
		}
		n, err := strconv.Atoi(r.CallID[1:])
		if err != nil || n < callIDMin || n > callIDMax {
			t.Fatalf("unexpected call id %q", r.CallID)
		}
		parts := strings.Split(r.LegID, "_")
		if len(parts) != 4 || len(parts[0]) != 11 || parts[1] != r.Extno || parts[2] != r.CallID {
			t.Fatalf("unexpected leg id %q for %+v", r.LegID, r)
		}
		if parts[3] != strconv.FormatInt(callDate(t, r).Unix(), 10) {
			t.Fatalf("leg id epoch %q does not match call date %q", parts[3], r.CallDate)
		}
		if r.SourceMOSLQ != "" || r.TargetInterarrivalJitter != "" {
			t.Fatalf("quality fields must stay empty")
		}
	}
}

func TestFactory_EarliestDateStaysInWindow(t *testing.T) {
	w, err := ParseRange("startDate", "0001-01-01", "endDate", "0001-01-01")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	f := newTestFactory(9)
	for i := 0; i < 50; i++ {
		got := callDate(t, f.Generate(w))
		if !w.Contains(got) || got.Year() != 1 {
			t.Fatalf("call date %s outside [%s, %s]", got, w.Start, w.End)
		}
	}
}

func TestFactory_StartOnlySpansCenturies(t *testing.T) {
	f := newTestFactory(10)
	start := time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		got := callDate(t, f.Generate(Since(start)))
		if got.Before(start) || got.After(fixedNow) {
			t.Fatalf("call date %s outside [%s, %s]", got, start, fixedNow)
		}
	}
}
