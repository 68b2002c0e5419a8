package nats

import (
	"context"
	"errors"

	"github.com/kirillkom/governed-rag/internal/core/domain"
	"github.com/kirillkom/governed-rag/internal/infrastructure/resilience"
	"github.com/nats-io/nats.go"
)

// publishVerdict treats broker connectivity failures as retryable; anything
// else (bad subject, oversized payload) is permanent.
func publishVerdict(err error) resilience.Verdict {
	switch {
	case err == nil:
		return resilience.Verdict{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.Verdict{}
	case resilience.IsCircuitOpen(err):
		return resilience.Verdict{Retry: true, Trip: true}
	case errors.Is(err, nats.ErrNoServers),
		errors.Is(err, nats.ErrTimeout),
		errors.Is(err, nats.ErrConnectionClosed),
		errors.Is(err, nats.ErrDisconnected):
		return resilience.Verdict{Retry: true, Trip: true}
	default:
		return resilience.Verdict{Trip: true}
	}
}

// asTemporary marks broker connectivity failures with the temporary error
// kind so callers shed the request instead of failing it permanently.
func asTemporary(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if publishVerdict(err).Retry {
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	}
	return err
}
