package cli

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/forkview/pkg/controller"
)

func newExploreFixture(t *testing.T, write snapshotWriter) ExploreModel {
	t.Helper()
	ctx := context.Background()
	ctrl, err := controller.New(ctx, controller.WithLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatal(err)
	}
	return NewExploreModel(ctx, ctrl, write)
}

func press(t *testing.T, m ExploreModel, keys ...tea.KeyMsg) ExploreModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(ExploreModel)
	}
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
)

func TestExploreAppendRequiresSelection(t *testing.T) {
	m := press(t, newExploreFixture(t, nil), runes("a"))
	if m.Status != "select a block first (enter)" {
		t.Errorf("status = %q", m.Status)
	}
	if m.ctrl.Snapshot().BlockCount() != 1 {
		t.Error("append without a selection changed the set")
	}
}

func TestExploreEditFlow(t *testing.T) {
	m := newExploreFixture(t, nil)

	m = press(t, m, keyEnter, runes("a"))
	if m.Branch != 0 || m.Ordinal != 1 {
		t.Fatalf("cursor after append = (%d,%d), want (0,1)", m.Branch, m.Ordinal)
	}

	m = press(t, m, keyEnter, runes("f"))
	if got := m.ctrl.Snapshot().Len(); got != 2 {
		t.Fatalf("branches after fork = %d, want 2", got)
	}
	if m.Branch != 1 || m.Ordinal != 1 {
		t.Errorf("cursor after fork = (%d,%d), want (1,1)", m.Branch, m.Ordinal)
	}

	// The main chain holds two blocks, so moving right stays on the head.
	m = press(t, m, keyUp, keyRight)
	if m.Branch != 0 || m.Ordinal != 1 {
		t.Errorf("cursor = (%d,%d), want (0,1)", m.Branch, m.Ordinal)
	}

	view := m.View()
	for _, want := range []string{controller.MainChainName, "Fork 1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = press(t, m, runes("r"))
	if m.ctrl.Snapshot().Len() != 1 || m.Branch != 0 || m.Ordinal != 0 {
		t.Errorf("reset left %d branches, cursor (%d,%d)", m.ctrl.Snapshot().Len(), m.Branch, m.Ordinal)
	}
}

func TestExploreToggleSelection(t *testing.T) {
	m := press(t, newExploreFixture(t, nil), keyEnter)
	if _, ok := m.ctrl.Selection(); !ok {
		t.Fatal("enter should select the block under the cursor")
	}
	m = press(t, m, keyEnter)
	if _, ok := m.ctrl.Selection(); ok {
		t.Error("second enter should clear the selection")
	}
	if m.Status != "selection cleared" {
		t.Errorf("status = %q", m.Status)
	}
}

func TestExploreWrite(t *testing.T) {
	var got controller.State
	write := func(_ context.Context, st controller.State) (string, error) {
		got = st
		return "chain.svg", nil
	}
	m := press(t, newExploreFixture(t, write), keyEnter, runes("w"))
	if m.Status != "wrote chain.svg" {
		t.Errorf("status = %q", m.Status)
	}
	if got.Selection == nil {
		t.Error("writer should receive the current selection")
	}

	m = press(t, newExploreFixture(t, nil), runes("w"))
	if m.Status != "writing is disabled" {
		t.Errorf("status without writer = %q", m.Status)
	}
}

func TestExploreQuit(t *testing.T) {
	m := newExploreFixture(t, nil)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
