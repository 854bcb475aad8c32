// Package host defines the contract between plugins and the assistant host.
//
// The host owns sessions, messages and the event stream. Plugins are factories
// that receive a Client and return Hooks; the Bus delivers host events to those
// hooks one at a time.
//
// Invariants:
// - Delivery is serialised: no two hooks run concurrently.
// - Hook errors and panics stop at the Bus; they are logged, never returned to the host.
// - A completed tool part reaches ToolExecuteAfter at most once per call ID.
//
// Usage:
//
//	bus, _ := host.NewBus(host.BusConfig{Client: client, Logger: logger})
//	_ = bus.Register("auto-session-name", naming.NewPlugin(naming.Options{}))
//	_ = bus.Start(ctx)
//	_ = bus.Dispatch(ctx, evt)
package host
