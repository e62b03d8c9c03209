package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"dayview/internal/layout"
	"dayview/internal/model"
)

func at(day, h, m int) time.Time {
	return time.Date(2024, 5, day, h, m, 0, 0, time.Local)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, events map[int][]model.Event) *Model {
	t.Helper()
	m := New(Options{
		Params:    layout.Params{StartHour: 8, EndHour: 18, Width: 300, MinEventHeight: 25, HourHeight: 100},
		Format24h: true,
		Now:       func() time.Time { return at(14, 10, 15) },
		Load: func(_ context.Context, day time.Time) ([]model.Event, error) {
			return events[day.Day()], nil
		},
	})
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	m.Update(m.loadCmd()())
	return m
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(key(k))
	}
	return cmd
}

var week = map[int][]model.Event{
	14: {
		{Title: "Standup", Start: at(14, 9, 0), End: at(14, 9, 30)},
		{Title: "Design", Start: at(14, 9, 15), End: at(14, 11, 0)},
	},
	15: {
		{Title: "Broken", Start: at(15, 11, 0), End: at(15, 10, 0)},
	},
}

func TestInitialLoad(t *testing.T) {
	m := newTestModel(t, week)
	if !m.Day().Equal(at(14, 0, 0)) {
		t.Fatalf("day = %v", m.Day())
	}
	if len(m.records) != 2 || m.err != nil {
		t.Fatalf("records = %d err = %v", len(m.records), m.err)
	}
	if m.offset != 0 {
		t.Errorf("offset = %d, want 0 (first block is within an hour of the top)", m.offset)
	}

	view := m.View()
	for _, want := range []string{"Tue 14 May 2024", "Standup", "Design", "09:00"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestDayNavigation(t *testing.T) {
	m := newTestModel(t, week)

	stale := m.loadCmd()
	cmd := press(m, "l")
	if !m.Day().Equal(at(15, 0, 0)) {
		t.Fatalf("after l: day = %v", m.Day())
	}

	// A late answer for the previous day must not replace the new one.
	m.Update(stale())
	if len(m.records) != 0 {
		t.Errorf("stale load applied: %d records", len(m.records))
	}

	m.Update(cmd())
	var invalid *layout.InvalidEventError
	if !errors.As(m.err, &invalid) {
		t.Fatalf("err = %v, want InvalidEventError", m.err)
	}
	if !strings.Contains(m.View(), "not after its start") {
		t.Error("view does not show the layout error")
	}

	press(m, "h", "h")
	if !m.Day().Equal(at(13, 0, 0)) {
		t.Errorf("after h h: day = %v", m.Day())
	}
	press(m, "t")
	if !m.Day().Equal(at(14, 0, 0)) {
		t.Errorf("after t: day = %v", m.Day())
	}
}

func TestSelectAndExtend(t *testing.T) {
	m := newTestModel(t, week)

	// Rows are quarter hours from 08:00; row 4 is 09:00.
	press(m, "down", "down", "down", "down", " ")
	top, bottom, ok := m.sel.Quarters()
	if !ok || top != 36 || bottom != 40 {
		t.Fatalf("selection = %d..%d ok=%v, want 36..40", top, bottom, ok)
	}
	if m.cursor != 7 {
		t.Errorf("cursor = %d, want 7", m.cursor)
	}

	press(m, "down", "down", "enter")
	if m.message != "selected 09:00 - 10:30" {
		t.Errorf("message = %q", m.message)
	}
	if !strings.Contains(m.View(), "┃") {
		t.Error("view does not mark the selection")
	}

	press(m, "esc")
	if _, _, ok := m.sel.Quarters(); ok {
		t.Error("esc did not cancel")
	}
	press(m, "enter")
	if m.message != "nothing selected" {
		t.Errorf("message = %q", m.message)
	}
}

func TestTapSameHourCancels(t *testing.T) {
	m := newTestModel(t, week)
	press(m, "down", "down", "down", "down", " ", " ")
	if _, _, ok := m.sel.Quarters(); ok {
		t.Error("second tap on the same hour should cancel")
	}
}

func TestCursorClampsToWindow(t *testing.T) {
	m := newTestModel(t, week)
	press(m, "up", "up")
	if m.cursor != 0 {
		t.Errorf("cursor = %d", m.cursor)
	}
	for i := 0; i < 100; i++ {
		press(m, "j")
	}
	if m.cursor != 39 {
		t.Errorf("cursor = %d, want 39", m.cursor)
	}
	if m.offset+m.visibleRows() != 40 {
		t.Errorf("offset = %d does not show the last row", m.offset)
	}
}

func TestQuitAndTick(t *testing.T) {
	m := newTestModel(t, week)
	cmd := press(m, "q")
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}

	_, cmd = m.Update(tickMsg(at(14, 11, 0)))
	if cmd == nil || !m.now.Equal(at(14, 10, 15)) {
		t.Errorf("tick: now = %v", m.now)
	}
}
