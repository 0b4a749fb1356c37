package binder

import (
	"sync"
	"time"
)

// DebounceWindow is how long a single click waits for a second click
// before it fires.
const DebounceWindow = 250 * time.Millisecond

// State of a click machine.
type State int

const (
	Idle State = iota
	Pending
	Fired
	Superseded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Fired:
		return "fired"
	case Superseded:
		return "superseded"
	}
	return "unknown"
}

// Timer is the part of *time.Timer a machine needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. It matches time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfter(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Machine disambiguates single and double clicks for one element:
//
//	idle --click--> pending --window--> fired
//	                pending --dblclick--> superseded
//
// A click while pending is ignored. A double click always fires the double
// handler, cancelling the pending single click if there is one.
type Machine struct {
	mu     sync.Mutex
	state  State
	timer  Timer
	gen    uint64
	window time.Duration
	after  AfterFunc

	onSingle func()
	onDouble func()
}

// NewMachine returns an idle machine. A zero window means DebounceWindow.
func NewMachine(window time.Duration, single, double func()) *Machine {
	if window <= 0 {
		window = DebounceWindow
	}
	return &Machine{window: window, after: realAfter, onSingle: single, onDouble: double}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Click registers a single click. It reports whether a new pending click
// was started.
func (m *Machine) Click() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Pending {
		return false
	}
	m.gen++
	gen := m.gen
	m.state = Pending
	m.timer = m.after(m.window, func() { m.expire(gen) })
	return true
}

func (m *Machine) expire(gen uint64) {
	m.mu.Lock()
	if m.gen != gen || m.state != Pending {
		m.mu.Unlock()
		return
	}
	m.state = Fired
	m.timer = nil
	fn := m.onSingle
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// DoubleClick cancels any pending single click and fires the double
// handler.
func (m *Machine) DoubleClick() {
	m.mu.Lock()
	if m.state == Pending {
		m.cancelLocked()
		m.state = Superseded
	}
	fn := m.onDouble
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Stop discards a pending click without firing it.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Pending {
		m.cancelLocked()
		m.state = Idle
	}
}

func (m *Machine) cancelLocked() {
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
