package host_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/sessionhooks/internal/metrics"
	"github.com/harun/sessionhooks/pkg/host"
	"github.com/harun/sessionhooks/pkg/host/hosttest"
)

type recorder struct {
	mu     sync.Mutex
	events []string
	tools  []host.ToolInput
}

func (r *recorder) plugin(name string, failWith error) host.Plugin {
	return func(ctx context.Context, in host.Input) (*host.Hooks, error) {
		return &host.Hooks{
			Event: func(ctx context.Context, evt host.Event) error {
				r.mu.Lock()
				r.events = append(r.events, name+":"+evt.Type)
				r.mu.Unlock()
				return failWith
			},
			ToolExecuteAfter: func(ctx context.Context, tin host.ToolInput, out *host.ToolOutput) error {
				r.mu.Lock()
				r.tools = append(r.tools, tin)
				r.mu.Unlock()
				return nil
			},
		}, nil
	}
}

func newBus(t *testing.T, m *metrics.Metrics) *host.Bus {
	t.Helper()
	bus, err := host.NewBus(host.BusConfig{Client: hosttest.NewClient(), Logger: zerolog.Nop(), Metrics: m})
	require.NoError(t, err)
	return bus
}

func TestNewBusRequiresClient(t *testing.T) {
	_, err := host.NewBus(host.BusConfig{})
	assert.Error(t, err)
}

func TestBusRegister(t *testing.T) {
	bus := newBus(t, nil)
	rec := &recorder{}

	require.NoError(t, bus.Register("a", rec.plugin("a", nil)))
	assert.Error(t, bus.Register("a", rec.plugin("a", nil)), "duplicate name")
	assert.Error(t, bus.Register("", rec.plugin("x", nil)))
	assert.Error(t, bus.Register("nil", nil))

	require.NoError(t, bus.Start(context.Background()))
	assert.Error(t, bus.Register("late", rec.plugin("late", nil)))
	assert.Error(t, bus.Start(context.Background()))
}

func TestBusDeliversInRegistrationOrder(t *testing.T) {
	bus := newBus(t, nil)
	rec := &recorder{}
	require.NoError(t, bus.Register("first", rec.plugin("first", nil)))
	require.NoError(t, bus.Register("second", rec.plugin("second", nil)))
	require.NoError(t, bus.Start(context.Background()))

	require.NoError(t, bus.Dispatch(context.Background(), hosttest.IdleEvent("ses_1")))
	assert.Equal(t, []string{"first:session.idle", "second:session.idle"}, rec.events)
	assert.Equal(t, []string{"first", "second"}, bus.Plugins())
}

func TestBusSwallowsHandlerFailures(t *testing.T) {
	m := metrics.NewMetrics()
	bus := newBus(t, m)
	rec := &recorder{}

	require.NoError(t, bus.Register("failing", rec.plugin("failing", errors.New("boom"))))
	require.NoError(t, bus.Register("panicking", func(ctx context.Context, in host.Input) (*host.Hooks, error) {
		return &host.Hooks{Event: func(ctx context.Context, evt host.Event) error {
			panic("kaboom")
		}}, nil
	}))
	require.NoError(t, bus.Register("healthy", rec.plugin("healthy", nil)))
	require.NoError(t, bus.Start(context.Background()))

	err := bus.Dispatch(context.Background(), hosttest.IdleEvent("ses_1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "kaboom")

	// later plugins still run
	assert.Equal(t, []string{"failing:session.idle", "healthy:session.idle"}, rec.events)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HandlerErrorsTotal.WithLabelValues("failing")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HandlerErrorsTotal.WithLabelValues("panicking")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsReceivedTotal.WithLabelValues(host.EventSessionIdle)))
}

func TestBusStartSkipsFailedFactories(t *testing.T) {
	bus := newBus(t, nil)
	rec := &recorder{}

	require.NoError(t, bus.Register("broken", func(ctx context.Context, in host.Input) (*host.Hooks, error) {
		return nil, errors.New("no credentials")
	}))
	require.NoError(t, bus.Register("ok", rec.plugin("ok", nil)))

	err := bus.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credentials")
	assert.Equal(t, []string{"ok"}, bus.Plugins())

	require.NoError(t, bus.Dispatch(context.Background(), hosttest.IdleEvent("ses_1")))
	assert.Equal(t, []string{"ok:session.idle"}, rec.events)
}

func TestBusTranslatesToolParts(t *testing.T) {
	bus := newBus(t, nil)
	rec := &recorder{}
	require.NoError(t, bus.Register("rec", rec.plugin("rec", nil)))
	require.NoError(t, bus.Start(context.Background()))

	ctx := context.Background()
	input := map[string]any{"filePath": "/repo/main.go"}

	require.NoError(t, bus.Dispatch(ctx, hosttest.ToolPartEvent("ses_1", "call_1", "edit", host.ToolStatusRunning, input)))
	assert.Empty(t, rec.tools)

	require.NoError(t, bus.Dispatch(ctx, hosttest.ToolPartEvent("ses_1", "call_1", "edit", host.ToolStatusCompleted, input)))
	require.NoError(t, bus.Dispatch(ctx, hosttest.ToolPartEvent("ses_1", "call_1", "edit", host.ToolStatusCompleted, input)))

	require.Len(t, rec.tools, 1)
	assert.Equal(t, "edit", rec.tools[0].Tool)
	assert.Equal(t, "ses_1", rec.tools[0].SessionID)
	assert.Equal(t, "/repo/main.go", rec.tools[0].StringArg("filePath"))

	// the raw part event is still delivered to event hooks
	assert.Len(t, rec.events, 3)
}

func TestBusDispatchToolAfterDedup(t *testing.T) {
	bus := newBus(t, nil)
	rec := &recorder{}
	require.NoError(t, bus.Register("rec", rec.plugin("rec", nil)))
	require.NoError(t, bus.Start(context.Background()))

	ctx := context.Background()
	in := host.ToolInput{Tool: "write", SessionID: "ses_1", CallID: "call_9"}
	require.NoError(t, bus.DispatchToolAfter(ctx, in, nil))
	require.NoError(t, bus.DispatchToolAfter(ctx, in, &host.ToolOutput{}))
	assert.Len(t, rec.tools, 1)

	// deleting the session forgets its call IDs
	require.NoError(t, bus.Dispatch(ctx, hosttest.Event(host.EventSessionDeleted, map[string]any{"info": map[string]any{"id": "ses_1"}})))
	require.NoError(t, bus.DispatchToolAfter(ctx, in, nil))
	assert.Len(t, rec.tools, 2)
}
