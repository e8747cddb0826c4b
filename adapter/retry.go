package adapter

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/srediag/vmm-altview/altview"
)

// DestroyViewRetry retries a view destroy while it reports busy, backing off
// between attempts. The manager itself never retries; retry policy belongs
// to the control plane, and this helper is one such policy.
//
// ErrViewBusy also covers an empty destroy target, so callers that might
// race another destroyer should bound maxRetries tightly or check occupancy
// via Lookup between attempts.
func DestroyViewRetry(g *altview.Guest, idx uint16, maxRetries uint64) error {
	op := func() error {
		err := g.DestroyView(idx)
		if err == nil {
			return nil
		}
		if errors.Is(err, altview.ErrViewBusy) {
			return err
		}
		return backoff.Permanent(err)
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	return backoff.Retry(op, backoff.WithMaxRetries(bo, maxRetries))
}
