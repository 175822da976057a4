package reporting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"cdr-mock/internal/cdr"
	"cdr-mock/internal/envelope"
	"cdr-mock/internal/metrics"
)

var (
	ErrInvalidParameter = errors.New("reporting: invalid parameter")
	ErrNoPublisher      = errors.New("reporting: publisher not configured")
)

// attemptFactor bounds rejection sampling: at most attemptFactor*limit draws per query.
const attemptFactor = 3

// Generator produces one record inside a window.
type Generator interface {
	Generate(w cdr.Window) cdr.CallRecord
}

// Publisher ships envelopes to a message broker.
type Publisher interface {
	Publish(ctx context.Context, envs []envelope.Envelope) error
	Topic() string
}

// Service is the query engine over generated records.
//
// Contract:
//   - Best effort: a query returns at most Limit records and never fails because the attempt
//     budget ran out.
//   - Stateless apart from the generator's record-id sequence.
type Service struct {
	gen       Generator
	wrapper   *envelope.Wrapper
	publisher Publisher
	clock     func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Service)

func WithPublisher(p Publisher) Option       { return func(s *Service) { s.publisher = p } }
func WithWrapper(w *envelope.Wrapper) Option { return func(s *Service) { s.wrapper = w } }
func WithClock(now func() time.Time) Option  { return func(s *Service) { s.clock = now } }
func WithRand(r *rand.Rand) Option           { return func(s *Service) { s.rng = r } }

func NewService(gen Generator, opts ...Option) *Service {
	s := &Service{gen: gen}
	for _, opt := range opts {
		opt(s)
	}
	if s.wrapper == nil {
		s.wrapper = envelope.NewWrapper()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.rng == nil {
		seed := uint64(time.Now().UnixNano())
		s.rng = rand.New(rand.NewPCG(seed, seed+7))
	}
	return s
}

// Calls runs bounded rejection sampling: draw, discard records failing the filter, stop at
// Limit accepted records or after attemptFactor*Limit draws, whichever comes first.
func (s *Service) Calls(ctx context.Context, q Query) (CallsResult, error) {
	if s.gen == nil {
		return CallsResult{}, errors.New("reporting: generator not configured")
	}
	if q.Limit < 0 || q.Filter.MinDuration < 0 {
		return CallsResult{}, ErrInvalidParameter
	}
	if err := ctx.Err(); err != nil {
		return CallsResult{}, err
	}

	out := CallsResult{Records: make([]cdr.CallRecord, 0, q.Limit)}
	budget := attemptFactor * q.Limit
	for len(out.Records) < q.Limit && out.Attempts < budget {
		rec := s.gen.Generate(q.Filter.Window)
		out.Attempts++
		if !q.Filter.Match(rec) {
			out.Rejected++
			continue
		}
		out.Records = append(out.Records, rec)
	}

	metrics.RecordsGenerated.Add(float64(out.Attempts))
	metrics.RecordsRejected.Add(float64(out.Rejected))
	return out, nil
}

// Stream returns the query's records wrapped as broker envelopes on the given partition.
func (s *Service) Stream(ctx context.Context, q Query, partition int) ([]envelope.Envelope, error) {
	out, err := s.envelopes(ctx, q, partition)
	if err != nil {
		return nil, err
	}
	metrics.EnvelopesWrapped.WithLabelValues("json").Add(float64(len(out)))
	return out, nil
}

func (s *Service) envelopes(ctx context.Context, q Query, partition int) ([]envelope.Envelope, error) {
	res, err := s.Calls(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]envelope.Envelope, 0, len(res.Records))
	for _, rec := range res.Records {
		out = append(out, s.wrapper.WrapPartition(rec, partition))
	}
	return out, nil
}

// Export writes the query's records as a CSV export document and returns the row count.
func (s *Service) Export(ctx context.Context, q Query, w io.Writer) (int, error) {
	envs, err := s.envelopes(ctx, q, 0)
	if err != nil {
		return 0, err
	}
	cw := envelope.NewCSVWriter(w)
	for _, e := range envs {
		if err := cw.Write(e); err != nil {
			return cw.Rows(), fmt.Errorf("reporting: write csv row: %w", err)
		}
	}
	if err := cw.Flush(); err != nil {
		return cw.Rows(), fmt.Errorf("reporting: flush csv: %w", err)
	}
	metrics.EnvelopesWrapped.WithLabelValues("csv").Add(float64(cw.Rows()))
	return cw.Rows(), nil
}

// Publish generates the query's records and hands them to the configured broker.
func (s *Service) Publish(ctx context.Context, q Query) (int, string, error) {
	if s.publisher == nil {
		return 0, "", ErrNoPublisher
	}
	envs, err := s.envelopes(ctx, q, 0)
	if err != nil {
		return 0, "", err
	}
	if err := s.publisher.Publish(ctx, envs); err != nil {
		return 0, s.publisher.Topic(), err
	}
	metrics.EnvelopesWrapped.WithLabelValues("broker").Add(float64(len(envs)))
	return len(envs), s.publisher.Topic(), nil
}

// PublisherConfigured reports whether Publish can succeed.
func (s *Service) PublisherConfigured() bool { return s.publisher != nil }

// Agents lists every catalog extension with a random username, group and status.
func (s *Service) Agents() []Agent {
	statuses := []string{"Available", "Busy", "Away", "Offline"}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Agent, 0, len(cdr.Extensions))
	for _, ext := range cdr.Extensions {
		out = append(out, Agent{
			Extension:   ext,
			Username:    s.pick(cdr.Usernames),
			GroupNumber: s.pick(cdr.GroupNumbers),
			DeviceID:    s.pick(cdr.DeviceIDs),
			Status:      s.pick(statuses),
		})
	}
	return out
}

// Extensions is the CloudLink-style listing of the extension catalog.
func (s *Service) Extensions(accountID string) []ExtensionStatus {
	statuses := []string{"active", "inactive", "busy"}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ExtensionStatus, 0, len(cdr.Extensions))
	for _, ext := range cdr.Extensions {
		out = append(out, ExtensionStatus{
			Extension: ext,
			Username:  s.pick(cdr.Usernames),
			Status:    s.pick(statuses),
			AccountID: accountID,
		})
	}
	return out
}

// Statistics returns a random KPI summary.
func (s *Service) Statistics() Statistics {
	agents := len(cdr.Extensions)

	s.mu.Lock()
	defer s.mu.Unlock()
	return Statistics{
		CallVolume: CallVolume{
			TotalCalls:    s.between(500, 2000),
			InboundCalls:  s.between(300, 1000),
			OutboundCalls: s.between(200, 1000),
			AnsweredCalls: s.between(400, 1800),
			MissedCalls:   s.between(50, 200),
		},
		CallMetrics: CallMetrics{
			AverageDuration: s.between(120, 300),
			AverageWaitTime: s.between(15, 60),
			AverageHoldTime: s.between(10, 45),
			ServiceLevel:    s.round(0.85, 0.98, 100),
		},
		JourneyMetrics: JourneyMetrics{
			TotalJourneys:           s.between(400, 1800),
			CompletedJourneys:       s.between(350, 1700),
			AverageContactPoints:    s.round(1.0, 2.5, 100),
			AverageExperienceRating: s.round(3.5, 4.8, 10),
		},
		AgentMetrics: AgentMetrics{
			TotalAgents:       agents,
			ActiveAgents:      s.between(5, agents),
			AverageHandleTime: s.between(180, 360),
		},
	}
}

// DailyStatistics returns the CloudLink-style "today" summary.
func (s *Service) DailyStatistics() DailyStatistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DailyStatistics{
		TotalCalls:         s.between(100, 1000),
		InboundCalls:       s.between(50, 500),
		OutboundCalls:      s.between(50, 500),
		AverageDuration:    s.between(60, 300),
		AverageWaitTime:    s.between(10, 60),
		AnsweredPercentage: s.between(80, 95),
		MissedCalls:        s.between(5, 20),
	}
}

// Now is the service clock, used for response timestamps.
func (s *Service) Now() time.Time { return s.clock() }

func (s *Service) pick(values []string) string { return values[s.rng.IntN(len(values))] }

func (s *Service) between(lo, hi int) int { return lo + s.rng.IntN(hi-lo+1) }

// round draws uniformly in [lo, hi] and rounds to 1/scale.
func (s *Service) round(lo, hi, scale float64) float64 {
	v := lo + s.rng.Float64()*(hi-lo)
	return float64(int(v*scale+0.5)) / scale
}
