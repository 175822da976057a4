package envelope

import (
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"cdr-mock/internal/cdr"
)

// TimestampTypeCreateTime is the only timestamp type the mock emits.
const TimestampTypeCreateTime = "CREATE_TIME"

// Pseudo-offset bounds, inclusive.
const (
	offsetMin = 25393000
	offsetMax = 25395000
)

// Key is the message key: the record id as a string.
type Key struct {
	Key string `json:"key"`
}

// Header mirrors a broker message header. Generated envelopes never carry any.
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Envelope is a broker-style message wrapping exactly one CallRecord.
type Envelope struct {
	Timestamp      int64          `json:"timestamp"`
	TimestampType  string         `json:"timestampType"`
	Partition      int            `json:"partition"`
	Offset         int64          `json:"offset"`
	Key            Key            `json:"key"`
	Value          cdr.CallRecord `json:"value"`
	Headers        []Header       `json:"headers"`
	ExceededFields string         `json:"exceededFields"`
}

// Wrapper stamps envelopes. Safe for concurrent use.
type Wrapper struct {
	partition int
	now       func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Wrapper)

func WithPartition(p int) Option            { return func(w *Wrapper) { w.partition = p } }
func WithClock(now func() time.Time) Option { return func(w *Wrapper) { w.now = now } }
func WithRand(r *rand.Rand) Option          { return func(w *Wrapper) { w.rng = r } }

func NewWrapper(opts ...Option) *Wrapper {
	w := &Wrapper{}
	for _, opt := range opts {
		opt(w)
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.rng == nil {
		seed := uint64(time.Now().UnixNano())
		w.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return w
}

// Wrap takes ownership of rec. The timestamp and offset are fresh per call and unrelated to
// the record's Call_date.
func (w *Wrapper) Wrap(rec cdr.CallRecord) Envelope {
	return w.WrapPartition(rec, w.partition)
}

// WrapPartition is Wrap with an explicit partition number.
func (w *Wrapper) WrapPartition(rec cdr.CallRecord, partition int) Envelope {
	w.mu.Lock()
	offset := int64(offsetMin + w.rng.IntN(offsetMax-offsetMin+1))
	w.mu.Unlock()

	return Envelope{
		Timestamp:     w.now().UnixMilli(),
		TimestampType: TimestampTypeCreateTime,
		Partition:     partition,
		Offset:        offset,
		Key:           Key{Key: strconv.FormatInt(rec.RecordID, 10)},
		Value:         rec,
		Headers:       []Header{},
	}
}
