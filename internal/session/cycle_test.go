package session

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func testSelection(t *testing.T) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><img src="a.png"></body></html>`))
	if err != nil {
		t.Fatalf("failed to parse test document: %v", err)
	}
	return doc.Find("img").First()
}

func TestCycle_IDAssignment(t *testing.T) {
	c := NewCycle()
	sel := testSelection(t)

	// Skipped positions leave holes: assigning positions 0 and 2 yields
	// img-0 and img-2, never img-1.
	if got := c.Assign(0, sel); got != "img-0" {
		t.Errorf("expected img-0, got %q", got)
	}
	if got := c.Assign(2, sel); got != "img-2" {
		t.Errorf("expected img-2, got %q", got)
	}
	if _, ok := c.Lookup("img-1"); ok {
		t.Error("expected img-1 to be unassigned")
	}
}

func TestCycle_IDsUniqueAcrossCycleObjects(t *testing.T) {
	a := NewCycle()
	b := NewCycle()

	if a.ID == b.ID {
		t.Error("expected distinct cycle tokens")
	}
	// Element ids restart per cycle; the cycle token disambiguates them.
	sel := testSelection(t)
	if a.Assign(0, sel) != b.Assign(0, sel) {
		t.Error("expected both cycles to start at img-0")
	}
}

func TestCycle_RegisterAndLookup(t *testing.T) {
	c := NewCycle()
	sel := testSelection(t)

	id := c.Assign(0, sel)

	got, ok := c.Lookup(id)
	if !ok {
		t.Fatalf("expected id %q to resolve", id)
	}
	if got != sel {
		t.Error("lookup returned a different selection")
	}

	if _, ok := c.Lookup("img-99"); ok {
		t.Error("expected unknown id to miss")
	}

	if c.Size() != 1 {
		t.Errorf("expected size 1, got %d", c.Size())
	}
}

func TestCoordinator_RejectsOverlappingCycles(t *testing.T) {
	g := NewCoordinator()

	first, err := g.Begin()
	if err != nil {
		t.Fatalf("unexpected error starting first cycle: %v", err)
	}

	if _, err := g.Begin(); err != ErrCycleInProgress {
		t.Fatalf("expected ErrCycleInProgress, got %v", err)
	}

	g.Finish(first)

	second, err := g.Begin()
	if err != nil {
		t.Fatalf("expected new cycle after finish, got %v", err)
	}
	if second == first {
		t.Error("expected a fresh cycle object")
	}
	g.Finish(second)
}

func TestCoordinator_FinishForeignCycleIsNoop(t *testing.T) {
	g := NewCoordinator()

	active, err := g.Begin()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g.Finish(NewCycle()) // not the active one

	if _, err := g.Begin(); err != ErrCycleInProgress {
		t.Error("expected active cycle to survive foreign finish")
	}
	g.Finish(active)
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		StateIdle:             "idle",
		StateScanning:         "scanning",
		StateAwaitingResponse: "awaiting-response",
		StateUpdating:         "updating",
	}
	for s, want := range states {
		if s.String() != want {
			t.Errorf("expected %q, got %q", want, s.String())
		}
	}
}
