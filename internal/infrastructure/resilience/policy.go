package resilience

import "time"

// Verdict classifies one failed attempt: Retry asks for another attempt
// after backoff, Trip counts the failure toward opening the circuit.
// Context cancellation gets the zero Verdict: no retry, no breaker impact.
type Verdict struct {
	Retry bool
	Trip  bool
}

// Classifier turns an operation error into a Verdict. Each outbound client
// supplies its own; the executor never inspects errors itself.
type Classifier func(err error) Verdict

// Policy bounds retries and the circuit breaker for one named operation.
type Policy struct {
	Attempts   int
	Backoff    time.Duration
	BackoffCap time.Duration
	Growth     float64

	BreakerDisabled bool
	TripAfter       uint32
	TripRatio       float64
	Cooldown        time.Duration
	HalfOpenCalls  uint32
}

// EmbedPolicy governs embedding calls. They are idempotent and the worker
// runs off a queue, so waiting out a model load beats failing the document.
func EmbedPolicy() Policy {
	return Policy{
		Attempts:   4,
		Backoff:    250 * time.Millisecond,
		BackoffCap: 2 * time.Second,
		Growth:     2.0,

		TripAfter:      8,
		TripRatio:      0.6,
		Cooldown:       20 * time.Second,
		HalfOpenCalls: 2,
	}
}

// GeneratePolicy governs answer generation. The caller is holding an open
// API request, so there is time for a single quick retry and no more.
func GeneratePolicy() Policy {
	return Policy{
		Attempts:   2,
		Backoff:    300 * time.Millisecond,
		BackoffCap: 300 * time.Millisecond,
		Growth:     1.0,

		TripAfter:      6,
		TripRatio:      0.5,
		Cooldown:       15 * time.Second,
		HalfOpenCalls: 1,
	}
}

// PublishPolicy governs queue publishes. They are cheap and safe to repeat,
// and the client reconnects on its own, so the breaker trips and recovers
// fast rather than queueing callers behind a dead broker.
func PublishPolicy() Policy {
	return Policy{
		Attempts:   3,
		Backoff:    50 * time.Millisecond,
		BackoffCap: 200 * time.Millisecond,
		Growth:     2.0,

		TripAfter:      5,
		TripRatio:      0.5,
		Cooldown:       5 * time.Second,
		HalfOpenCalls: 1,
	}
}

// DefaultPolicy covers operations without a dedicated entry.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   3,
		Backoff:    100 * time.Millisecond,
		BackoffCap: 400 * time.Millisecond,
		Growth:     2.0,

		TripAfter:      10,
		TripRatio:      0.5,
		Cooldown:       30 * time.Second,
		HalfOpenCalls: 2,
	}
}

// PipelinePolicies maps every resilient operation in the pipeline to its
// policy. Operation names match what the clients pass to Execute.
func PipelinePolicies() map[string]Policy {
	return map[string]Policy{
		"ollama.embed":    EmbedPolicy(),
		"ollama.generate": GeneratePolicy(),
		"nats.publish":    PublishPolicy(),
	}
}

func (p Policy) normalize() Policy {
	def := DefaultPolicy()
	if p.Attempts <= 0 {
		p.Attempts = def.Attempts
	}
	if p.Backoff <= 0 {
		p.Backoff = def.Backoff
	}
	if p.BackoffCap < p.Backoff {
		p.BackoffCap = p.Backoff
	}
	if p.Growth < 1.0 {
		p.Growth = def.Growth
	}
	if p.TripAfter == 0 {
		p.TripAfter = def.TripAfter
	}
	if p.TripRatio <= 0 || p.TripRatio > 1 {
		p.TripRatio = def.TripRatio
	}
	if p.Cooldown <= 0 {
		p.Cooldown = def.Cooldown
	}
	if p.HalfOpenCalls == 0 {
		p.HalfOpenCalls = def.HalfOpenCalls
	}
	return p
}
