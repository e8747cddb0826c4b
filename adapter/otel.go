package adapter

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/vmm-altview/altview"
	"github.com/srediag/vmm-altview/api"
)

// Instrumentation feeds view lifecycle events into OpenTelemetry counters
// and wraps control-plane operations in spans.
type Instrumentation struct {
	tracer   trace.Tracer
	allocs   metric.Int64Counter
	destroys metric.Int64Counter
	switches metric.Int64Counter
	bindings metric.Int64UpDownCounter
}

// NewInstrumentation builds the instruments on the given meter and tracer.
func NewInstrumentation(meter metric.Meter, tracer trace.Tracer) (*Instrumentation, error) {
	var (
		i   = &Instrumentation{tracer: tracer}
		err error
	)
	if i.allocs, err = meter.Int64Counter("altview.allocations"); err != nil {
		return nil, err
	}
	if i.destroys, err = meter.Int64Counter("altview.destroys"); err != nil {
		return nil, err
	}
	if i.switches, err = meter.Int64Counter("altview.switches"); err != nil {
		return nil, err
	}
	if i.bindings, err = meter.Int64UpDownCounter("altview.bindings"); err != nil {
		return nil, err
	}
	return i, nil
}

// Install subscribes the instrumentation to the lifecycle event stream.
func (i *Instrumentation) Install() {
	altview.Subscribe(i.onEvent)
}

func (i *Instrumentation) onEvent(ev api.Event) {
	ctx := context.Background()
	switch ev.Kind {
	case api.EventViewAllocated:
		i.allocs.Add(ctx, 1)
	case api.EventViewDestroyed:
		i.destroys.Add(ctx, 1)
	case api.EventGuestSwitched:
		i.switches.Add(ctx, 1)
	case api.EventVCPUBound:
		i.bindings.Add(ctx, 1)
	case api.EventVCPUUnbound:
		i.bindings.Add(ctx, -1)
	}
}

// WithSpan runs a control-plane operation inside a span named after it.
func (i *Instrumentation) WithSpan(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := i.tracer.Start(ctx, name)
	defer span.End()
	return fn(ctx)
}
