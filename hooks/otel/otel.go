// Package otelhooks counts accessor.Hooks events with OpenTelemetry instruments.
//
//	mp := sdkmetric.NewMeterProvider(...)
//	hooks, err := otelhooks.New(mp.Meter("accessor"))
//	c, _ := accessor.NewCached[Settings](key, accessor.WithHooks(hooks))
package otelhooks

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/unkn0wn-root/accessor"
)

type Hooks struct {
	readThrough    metric.Int64Counter
	readFailed     metric.Int64Counter
	writeFailed    metric.Int64Counter
	pushEmpty      metric.Int64Counter
	mutateConflict metric.Int64Counter
	selfHeal       metric.Int64Counter
}

var _ accessor.Hooks = (*Hooks)(nil)

// New creates the counters on meter.
func New(meter metric.Meter) (*Hooks, error) {
	var h Hooks
	for _, c := range []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&h.readThrough, "accessor.read_through", "Backing reads by reason (miss, reload)"},
		{&h.readFailed, "accessor.read_failed", "Failed backing reads"},
		{&h.writeFailed, "accessor.write_failed", "Failed backing writes; the cache is ahead of the store"},
		{&h.pushEmpty, "accessor.push_empty", "Pushes of an empty cache"},
		{&h.mutateConflict, "accessor.mutate_conflict", "MutateCAS retries"},
		{&h.selfHeal, "accessor.self_heal", "Corrupt provider entries deleted on read"},
	} {
		ctr, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
		*c.dst = ctr
	}
	return &h, nil
}

func named(name string, kv ...attribute.KeyValue) metric.AddOption {
	return metric.WithAttributes(append(kv, attribute.String("name", name))...)
}

func (h *Hooks) ReadThrough(name, reason string) {
	h.readThrough.Add(context.Background(), 1, named(name, attribute.String("reason", reason)))
}

func (h *Hooks) ReadFailed(name string, _ error) {
	h.readFailed.Add(context.Background(), 1, named(name))
}

func (h *Hooks) WriteFailed(name string, _ error) {
	h.writeFailed.Add(context.Background(), 1, named(name))
}

func (h *Hooks) PushEmpty(name string) {
	h.pushEmpty.Add(context.Background(), 1, named(name))
}

func (h *Hooks) MutateConflict(name string, _ int) {
	h.mutateConflict.Add(context.Background(), 1, named(name))
}

// SelfHeal is keyed by reason only; provider keys are unbounded.
func (h *Hooks) SelfHeal(_, reason string) {
	h.selfHeal.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
}
