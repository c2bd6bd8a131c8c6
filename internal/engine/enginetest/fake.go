// Package enginetest provides an in-memory engine.Channel for tests.
package enginetest

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/five82/simdeck/internal/engine"
)

// Call is one recorded invocation.
type Call struct {
	Command string
	Args    any
}

// Responder answers a single command.
type Responder func(ctx context.Context, args any) (any, error)

// Fake records invocations and answers them with registered responders.
// Commands without a responder succeed with a null result.
type Fake struct {
	mu         sync.Mutex
	calls      []Call
	responders map[string]Responder
	subs       map[string]map[int]engine.Handler
	nextSub    int

	settings engine.Record
	state    engine.Record
}

var _ engine.Channel = (*Fake)(nil)

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		responders: make(map[string]Responder),
		subs:       make(map[string]map[int]engine.Handler),
	}
}

// NewWithRecords returns a fake that stores settings and state the way the
// engine does: update commands write a key, get commands return a copy.
func NewWithRecords(settings, state engine.Record) *Fake {
	f := New()
	f.settings = settings.Clone()
	f.state = state.Clone()
	f.Handle(engine.CmdGetSettings, func(context.Context, any) (any, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.settings.Clone(), nil
	})
	f.Handle(engine.CmdGetState, func(context.Context, any) (any, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.state.Clone(), nil
	})
	f.Handle(engine.CmdUpdateSetting, func(_ context.Context, args any) (any, error) {
		a, ok := args.(engine.UpdateSettingArgs)
		if !ok {
			return nil, &engine.RemoteError{Code: engine.CodeBadRequest, Message: fmt.Sprintf("unexpected args %T", args)}
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.settings[a.SettingName] = a.Value
		return nil, nil
	})
	f.Handle(engine.CmdUpdateState, func(_ context.Context, args any) (any, error) {
		a, ok := args.(engine.UpdateStateArgs)
		if !ok {
			return nil, &engine.RemoteError{Code: engine.CodeBadRequest, Message: fmt.Sprintf("unexpected args %T", args)}
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.state[a.StateName] = a.Value
		return nil, nil
	})
	return f
}

// Handle registers fn as the responder for command, replacing any previous one.
func (f *Fake) Handle(command string, fn Responder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responders[command] = fn
}

// Fail makes command fail with a RemoteError carrying code.
func (f *Fake) Fail(command, code string) {
	f.Handle(command, func(context.Context, any) (any, error) {
		return nil, &engine.RemoteError{Code: code, Message: command + " rejected"}
	})
}

// SetSetting changes the stored settings behind the client's back.
func (f *Fake) SetSetting(key string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[key] = value
}

// Settings returns a copy of the stored settings.
func (f *Fake) Settings() engine.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings.Clone()
}

// State returns a copy of the stored runtime state.
func (f *Fake) State() engine.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Clone()
}

// Invoke records the call and runs the registered responder.
func (f *Fake) Invoke(ctx context.Context, command string, args any) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Command: command, Args: args})
	fn := f.responders[command]
	f.mu.Unlock()

	if fn == nil {
		return json.RawMessage("null"), nil
	}
	result, err := fn(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", command, err)
	}
	return raw, nil
}

// Subscribe registers h for event.
func (f *Fake) Subscribe(event string, h engine.Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSub++
	id := f.nextSub
	if f.subs[event] == nil {
		f.subs[event] = make(map[int]engine.Handler)
	}
	f.subs[event][id] = h
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs[event], id)
	}
}

// Emit delivers payload to every subscriber of event on the calling goroutine.
func (f *Fake) Emit(event string, payload any) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			panic(err)
		}
		raw = b
	}
	f.mu.Lock()
	subs := f.subs[event]
	handlers := make([]engine.Handler, 0, len(subs))
	for _, id := range slices.Sorted(maps.Keys(subs)) {
		handlers = append(handlers, subs[id])
	}
	f.mu.Unlock()
	for _, h := range handlers {
		h(raw)
	}
}

// Subscribers reports how many handlers are registered for event.
func (f *Fake) Subscribers(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[event])
}

// Calls returns every recorded invocation in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallsTo returns the recorded invocations of command.
func (f *Fake) CallsTo(command string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Command == command {
			out = append(out, c)
		}
	}
	return out
}

// Commands returns the recorded command names in order.
func (f *Fake) Commands() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Command
	}
	return out
}

// Reset forgets recorded calls.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
