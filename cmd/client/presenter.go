package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/dkeye/RoomChat/internal/domain"
)

// terminal prints session events as plain lines.
type terminal struct {
	mu  sync.Mutex
	out io.Writer

	sender lipgloss.Style
	system lipgloss.Style
	alert  lipgloss.Style
}

func newTerminal(out io.Writer) *terminal {
	return &terminal{
		out:    out,
		sender: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		system: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8")),
		alert:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
}

func (t *terminal) println(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, s)
}

func (t *terminal) Message(room domain.RoomName, ev domain.Event) {
	switch ev.Kind {
	case domain.EventUserLeft:
		t.println(t.system.Render(fmt.Sprintf("[%s] %s %s", room, ev.Sender, ev.Text)))
	default:
		t.println(fmt.Sprintf("[%s] %s: %s", room, t.sender.Render(string(ev.Sender)), ev.Text))
	}
}

func (t *terminal) RoomClosed(room domain.RoomName) {
	t.println(t.alert.Render(fmt.Sprintf("room %s: %s", room, domain.RoomClosedNotice)))
}

func (t *terminal) RoomChanged(room domain.RoomName) {
	if room == "" {
		t.println(t.system.Render("not in a room"))
		return
	}
	t.println(t.system.Render(fmt.Sprintf("joined %s", room)))
}

func (t *terminal) RoomsChanged(rooms []domain.RoomName) {
	if len(rooms) == 0 {
		t.println(t.system.Render("no rooms yet, /create one"))
		return
	}
	names := lo.Map(rooms, func(r domain.RoomName, _ int) string { return string(r) })
	t.println(t.system.Render("rooms: " + strings.Join(names, ", ")))
}

func (t *terminal) Error(err error) {
	t.println(t.alert.Render(err.Error()))
}

func (t *terminal) Info(s string) {
	t.println(t.system.Render(s))
}
