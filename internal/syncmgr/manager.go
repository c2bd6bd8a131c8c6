package syncmgr

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/five82/simdeck/internal/engine"
)

// ErrInvalidValue wraps validator failures; the edit never reaches the engine.
var ErrInvalidValue = errors.New("invalid value")

// Kind selects one of the two synchronized records.
type Kind int

const (
	KindSettings Kind = iota
	KindState
)

func (k Kind) String() string {
	if k == KindState {
		return "state"
	}
	return "settings"
}

// Validator checks a single edit at the UI edge.
type Validator interface {
	ValidateSetting(key string, value any) error
	ValidateState(key string, value any) error
}

// Options configure a Manager.
type Options struct {
	Channel   engine.Channel
	Validator Validator // optional
	Logger    *log.Logger
	// OnChange is called, outside any lock, whenever an asynchronous outcome
	// replaces the local copy of a record.
	OnChange func(kind Kind, rec engine.Record)
}

// Manager keeps local Settings and RuntimeState consistent with the engine
// using optimistic writes and full resyncs.
type Manager struct {
	ch        engine.Channel
	validator Validator
	log       *log.Logger
	onChange  func(Kind, engine.Record)

	mu       sync.Mutex
	replicas [2]*replica
}

// replica tracks one record. seq counts writes; keySeq holds the sequence of
// the newest write per key and authSeq the sequence at which each key's
// authoritative value was learned.
type replica struct {
	kind      Kind
	getCmd    string
	updateCmd string

	current engine.Record
	auth    engine.Record
	seq     uint64
	keySeq  map[string]uint64
	authSeq map[string]uint64
}

// New builds a Manager over opts.Channel.
func New(opts Options) (*Manager, error) {
	if opts.Channel == nil {
		return nil, fmt.Errorf("syncmgr requires a channel")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	m := &Manager{
		ch:        opts.Channel,
		validator: opts.Validator,
		log:       logger,
		onChange:  opts.OnChange,
	}
	m.replicas[KindSettings] = newReplica(KindSettings, engine.CmdGetSettings, engine.CmdUpdateSetting)
	m.replicas[KindState] = newReplica(KindState, engine.CmdGetState, engine.CmdUpdateState)
	return m, nil
}

func newReplica(kind Kind, getCmd, updateCmd string) *replica {
	return &replica{
		kind:      kind,
		getCmd:    getCmd,
		updateCmd: updateCmd,
		current:   engine.Record{},
		auth:      engine.Record{},
		keySeq:    make(map[string]uint64),
		authSeq:   make(map[string]uint64),
	}
}

// Current returns a copy of the local record of kind.
func (m *Manager) Current(kind Kind) engine.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replicas[kind].current.Clone()
}

// UpdateSettingOptimistic applies value to a copy of current and returns it
// immediately, then persists it in the background. With resync the returned
// Op resolves to a freshly fetched authoritative record; otherwise it resolves
// to the local record once the engine has answered.
func (m *Manager) UpdateSettingOptimistic(ctx context.Context, current engine.Record, key string, value any, resync bool) (engine.Record, *Op, error) {
	return m.update(ctx, KindSettings, current, key, value, resync)
}

// UpdateStateOptimistic is UpdateSettingOptimistic for RuntimeState.
func (m *Manager) UpdateStateOptimistic(ctx context.Context, current engine.Record, key string, value any, resync bool) (engine.Record, *Op, error) {
	return m.update(ctx, KindState, current, key, value, resync)
}

// SyncSettings replaces the local settings with a full fetch.
func (m *Manager) SyncSettings(ctx context.Context) (engine.Record, error) {
	return m.sync(ctx, KindSettings)
}

// SyncState replaces the local runtime state with a full fetch.
func (m *Manager) SyncState(ctx context.Context) (engine.Record, error) {
	return m.sync(ctx, KindState)
}

// SyncAll fetches both records. A failure of one does not prevent the other.
func (m *Manager) SyncAll(ctx context.Context) (settings, state engine.Record, err error) {
	settings, errSettings := m.SyncSettings(ctx)
	state, errState := m.SyncState(ctx)
	return settings, state, errors.Join(errSettings, errState)
}

// ApplyPreset asks the engine to load a preset, then resyncs everything.
func (m *Manager) ApplyPreset(ctx context.Context, name string) (settings, state engine.Record, err error) {
	return m.invokeThenSync(ctx, engine.CmdApplyPreset, engine.PresetArgs{PresetName: name})
}

// Randomize asks the engine to randomize its settings, then resyncs everything.
func (m *Manager) Randomize(ctx context.Context) (settings, state engine.Record, err error) {
	return m.invokeThenSync(ctx, engine.CmdRandomize, nil)
}

// Reset asks the engine to restore default settings, then resyncs everything.
func (m *Manager) Reset(ctx context.Context) (settings, state engine.Record, err error) {
	return m.invokeThenSync(ctx, engine.CmdResetSettings, nil)
}

func (m *Manager) invokeThenSync(ctx context.Context, command string, args any) (engine.Record, engine.Record, error) {
	if _, err := m.ch.Invoke(ctx, command, args); err != nil {
		m.log.Printf("syncmgr: %s failed: %v", command, err)
		return m.Current(KindSettings), m.Current(KindState), err
	}
	return m.SyncAll(ctx)
}

func (m *Manager) update(ctx context.Context, kind Kind, current engine.Record, key string, value any, resync bool) (engine.Record, *Op, error) {
	if err := m.validate(kind, key, value); err != nil {
		return current, nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}

	next := current.Clone()
	next[key] = value

	m.mu.Lock()
	r := m.replicas[kind]
	r.seq++
	mySeq := r.seq
	r.keySeq[key] = mySeq
	r.current[key] = value
	m.mu.Unlock()

	op := newOp()
	go func() {
		rec, err := m.persist(ctx, r, key, value, mySeq)
		if err == nil && resync {
			rec, err = m.sync(ctx, kind)
		}
		op.finish(rec, err)
	}()
	return next, op, nil
}

func (m *Manager) persist(ctx context.Context, r *replica, key string, value any, mySeq uint64) (engine.Record, error) {
	var args any = engine.UpdateSettingArgs{SettingName: key, Value: value}
	if r.kind == KindState {
		args = engine.UpdateStateArgs{StateName: key, Value: value}
	}
	_, err := m.ch.Invoke(ctx, r.updateCmd, args)

	m.mu.Lock()
	if err == nil {
		if r.authSeq[key] <= mySeq {
			r.auth[key] = value
			r.authSeq[key] = mySeq
		}
		snapshot := r.current.Clone()
		m.mu.Unlock()
		return snapshot, nil
	}

	reverted := false
	if r.keySeq[key] == mySeq {
		if prev, ok := r.auth[key]; ok {
			r.current[key] = prev
		} else {
			delete(r.current, key)
		}
		reverted = true
	}
	snapshot := r.current.Clone()
	m.mu.Unlock()

	if reverted {
		m.log.Printf("warning: syncmgr: %s %q failed, reverted to last authoritative value: %v", r.updateCmd, key, err)
		m.notify(r.kind, snapshot)
	} else {
		m.log.Printf("warning: syncmgr: %s %q failed, newer write pending: %v", r.updateCmd, key, err)
	}
	return snapshot, err
}

func (m *Manager) sync(ctx context.Context, kind Kind) (engine.Record, error) {
	m.mu.Lock()
	r := m.replicas[kind]
	issuedAt := r.seq
	m.mu.Unlock()

	raw, err := m.ch.Invoke(ctx, r.getCmd, nil)
	if err != nil {
		m.log.Printf("syncmgr: %s failed: %v", r.getCmd, err)
		return m.Current(kind), err
	}
	fetched, err := engine.DecodeRecord(raw)
	if err != nil {
		m.log.Printf("syncmgr: decode %s: %v", r.getCmd, err)
		return m.Current(kind), fmt.Errorf("decode %s: %w", r.getCmd, err)
	}

	m.mu.Lock()
	merged := fetched.Clone()
	for key, seq := range r.keySeq {
		if seq <= issuedAt {
			continue
		}
		// Written after this fetch was issued; the fetch cannot know about it.
		if v, ok := r.current[key]; ok {
			merged[key] = v
		} else {
			delete(merged, key)
		}
	}
	for key, v := range fetched {
		if r.authSeq[key] > issuedAt {
			continue
		}
		r.auth[key] = v
		r.authSeq[key] = issuedAt
	}
	r.current = merged
	snapshot := merged.Clone()
	m.mu.Unlock()

	m.notify(kind, snapshot)
	return snapshot, nil
}

func (m *Manager) validate(kind Kind, key string, value any) error {
	if m.validator == nil {
		return nil
	}
	if kind == KindState {
		return m.validator.ValidateState(key, value)
	}
	return m.validator.ValidateSetting(key, value)
}

func (m *Manager) notify(kind Kind, rec engine.Record) {
	if m.onChange != nil {
		m.onChange(kind, rec)
	}
}
