package cdr

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"
)

// CallDateLayout is the wire format of Call_date (no zone; values are UTC).
const CallDateLayout = "2006-01-02T15:04:05"

const (
	defaultLookback = time.Hour
	endOnlyLookback = 30 * 24 * time.Hour
)

// Factory builds CallRecords. It owns the record-id Sequence it advances.
// Safe for concurrent use.
type Factory struct {
	seq *Sequence
	now func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Factory)

// WithSequence injects the record-id sequence (default: base DefaultRecordBase).
func WithSequence(s *Sequence) Option { return func(f *Factory) { f.seq = s } }

// WithClock injects the time source used for default windows.
func WithClock(now func() time.Time) Option { return func(f *Factory) { f.now = now } }

// WithRand injects the random source. Tests use a seeded PCG for reproducible output.
func WithRand(r *rand.Rand) Option { return func(f *Factory) { f.rng = r } }

func NewFactory(opts ...Option) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	if f.seq == nil {
		f.seq = NewSequence(DefaultRecordBase)
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.rng == nil {
		seed := uint64(time.Now().UnixNano())
		f.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return f
}

// Sequence exposes the record-id sequence so callers can inspect or reset it.
func (f *Factory) Sequence() *Sequence { return f.seq }

// Generate draws one record whose Call_date lies in w.
//
// Every field is drawn independently; cross-field invariants are applied afterwards as
// corrections, never by biasing the duration draw.
func (f *Factory) Generate(w Window) CallRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.seq.Next()
	callAt := f.sampleCallDate(w)

	extno := f.pick(Extensions)
	direction := f.pick(Directions)
	callID := f.pick(callIDPrefixes) + strconv.Itoa(f.between(callIDMin, callIDMax))

	ringTime := f.between(0, maxRingSeconds)
	duration := f.between(0, maxDuration)
	waitTime := f.between(0, maxWaitSeconds)
	holdTime := f.between(0, maxHoldSeconds)
	jitter := f.between(0, maxTotalJitter)
	cost := float64(f.between(0, maxCostCents)) / 100
	rating := f.between(0, maxRating)

	port := ""
	if f.rng.Float64() < portPresentChance {
		port = f.phoneNumber()
	}

	// Post-draw corrections.
	if direction != DirectionInbound && direction != DirectionBoth {
		ringTime = 0
	}
	unanswer := "0"
	contactPoints := "1"
	if duration == 0 {
		unanswer = "1"
		contactPoints = "0"
		cost = 0
		rating = 0
		holdTime = 0
	}

	return CallRecord{
		RecordID:  id,
		Extno:     extno,
		Username:  f.pick(Usernames),
		CallDate:  callAt.Format(CallDateLayout),
		Number:    f.phoneNumber(),
		Port:      port,
		RingTime:  ringTime,
		CallCost:  cost,
		Duration:  duration,
		Direction: direction,
		Unanswer:  unanswer,
		Transfer:  strconv.Itoa(f.between(0, 1)),
		Vpn:       "0",
		CallDist:  "1",
		StdCode:   "0",

		CallID:           callID,
		GroupNo:          f.pick(GroupNumbers),
		CallOutcome:      f.pick(CallOutcomes),
		CallLegID:        strconv.Itoa(f.between(1, maxCallLegs)),
		CallReturnStatus: "0",
		TenantID:         "1",
		LegID:            legID(legPrefixMin+f.rng.Int64N(legPrefixMax-legPrefixMin+1), extno, callID, callAt),
		CallLegs:         strconv.Itoa(f.between(1, maxCallLegs)),

		GroupPosition: strconv.Itoa(f.between(0, 1)),

		TotalDuration:        strconv.Itoa(duration + ringTime + jitter),
		WaitTime:             strconv.Itoa(waitTime),
		HoldDuration:         strconv.Itoa(holdTime),
		JourneyWaitTime:      strconv.Itoa(waitTime),
		JourneyOutcome:       f.pick(JourneyOutcomes),
		ContactPoints:        contactPoints,
		CallExperienceRating: strconv.Itoa(rating),
		DeviceID:             f.pick(DeviceIDs),
	}
}

// sampleCallDate places the call uniformly (in whole seconds) inside the effective window:
//   - both bounds: [start, end]
//   - start only:  [start, now], or exactly start when start is not in the past
//   - end only:    [end-30d, end]
//   - neither:     [now-1h, now]
func (f *Factory) sampleCallDate(w Window) time.Time {
	now := f.now().UTC().Truncate(time.Second)

	switch {
	case w.HasStart() && w.HasEnd():
		return f.uniform(w.Start, w.End)
	case w.HasStart():
		if !now.After(w.Start) {
			return w.Start
		}
		return f.uniform(w.Start, now)
	case w.HasEnd():
		return f.uniform(w.End.Add(-endOnlyLookback), w.End)
	default:
		return f.uniform(now.Add(-defaultLookback), now)
	}
}

// uniform works on Unix seconds so spans longer than a time.Duration can hold stay exact.
func (f *Factory) uniform(from, to time.Time) time.Time {
	span := to.Unix() - from.Unix()
	if span <= 0 {
		return from
	}
	return time.Unix(from.Unix()+f.rng.Int64N(span+1), 0).UTC()
}

func (f *Factory) pick(values []string) string {
	return values[f.rng.IntN(len(values))]
}

// between returns an int in [lo, hi].
func (f *Factory) between(lo, hi int) int {
	return lo + f.rng.IntN(hi-lo+1)
}

func (f *Factory) phoneNumber() string {
	return countryPrefix + strconv.Itoa(f.between(subscriberMin, subscriberMax))
}

func legID(prefix int64, extno, callID string, at time.Time) string {
	return fmt.Sprintf("%d_%s_%s_%d", prefix, extno, callID, at.Unix())
}
