// Package session owns the lifetime of one collection cycle: the ephemeral
// id assignment, the id-to-element reference map, and the cycle state. A
// cycle object is built from scratch for every trigger and discarded when
// the cycle settles, so stale references never leak across cycles.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// ErrCycleInProgress is returned when a trigger arrives while a previous
// cycle has not settled yet. Overlapping cycles are rejected rather than
// queued; the caller may retry once the active cycle finishes.
var ErrCycleInProgress = errors.New("a collection cycle is already in progress")

// State tracks where a cycle is in its idle → scanning → awaiting-response →
// updating → idle walk.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateAwaitingResponse
	StateUpdating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateAwaitingResponse:
		return "awaiting-response"
	case StateUpdating:
		return "updating"
	default:
		return "unknown"
	}
}

// Cycle is the per-cycle context object passed through the
// scan → relay → update chain.
type Cycle struct {
	ID    string
	state State

	refs map[string]*goquery.Selection
}

// NewCycle creates an empty cycle with a fresh opaque token.
func NewCycle() *Cycle {
	return &Cycle{
		ID:    uuid.NewString(),
		state: StateIdle,
		refs:  make(map[string]*goquery.Selection),
	}
}

// Assign reserves the ephemeral id for the element at the given scan
// position and records the element under it. Positions are unique within
// one scan, so ids are too; skipped positions leave holes in the sequence
// rather than shifting later ids.
func (c *Cycle) Assign(position int, sel *goquery.Selection) string {
	id := fmt.Sprintf("img-%d", position)
	c.refs[id] = sel
	return id
}

// Lookup resolves an id back to its element. Unknown ids return ok=false
// and are not an error.
func (c *Cycle) Lookup(id string) (*goquery.Selection, bool) {
	sel, ok := c.refs[id]
	return sel, ok
}

// Size reports how many elements the cycle is tracking.
func (c *Cycle) Size() int {
	return len(c.refs)
}

// State returns the cycle's current state.
func (c *Cycle) State() State {
	return c.state
}

// SetState advances the cycle's state.
func (c *Cycle) SetState(s State) {
	c.state = s
}

// Coordinator enforces the single-active-cycle policy.
type Coordinator struct {
	mu     sync.Mutex
	active *Cycle
}

// NewCoordinator creates a coordinator with no active cycle.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Begin starts a new cycle, or returns ErrCycleInProgress while another
// cycle is still in flight.
func (g *Coordinator) Begin() (*Cycle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active != nil {
		return nil, ErrCycleInProgress
	}
	g.active = NewCycle()
	return g.active, nil
}

// Finish settles the given cycle and frees the coordinator for the next
// trigger. Finishing a cycle that is not active is a no-op.
func (g *Coordinator) Finish(c *Cycle) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active == c {
		g.active.SetState(StateIdle)
		g.active = nil
	}
}
