// Package tui is a small interactive terminal dashboard over a
// Registry: a scrollable device list, a detail pane for the selected
// device's mode/EDID state, and a live host-resource status line.
package tui

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"udl/internal/diag"
	"udl/pkg/udl"
)

var (
	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	detailStyle    = lipgloss.NewStyle().Padding(0, 1)
)

// deviceItem adapts a *udl.Device to bubbles/list's Item interface.
type deviceItem struct{ dev *udl.Device }

func (i deviceItem) Title() string { return i.dev.Serial }
func (i deviceItem) Description() string {
	if i.dev.Mode.Width == 0 {
		return fmt.Sprintf("%s — no mode selected", i.dev.Type)
	}
	return fmt.Sprintf("%s — %dx%d@%dHz", i.dev.Type, i.dev.Mode.Width, i.dev.Mode.Height, i.dev.Mode.Refresh)
}
func (i deviceItem) FilterValue() string { return i.dev.Serial }

// Model is the bubbletea model driving the dashboard.
type Model struct {
	registry *udl.Registry
	list     list.Model

	width, height int

	resourceLine string

	copyNotice      string
	copyNoticeTicks int
}

type resourceTickMsg struct{ line string }

// NewModel builds a dashboard over registry's current device snapshot.
// Call Refresh to pick up devices attached after construction.
func NewModel(registry *udl.Registry) Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Attached adapters"

	m := Model{registry: registry, list: l}
	m.Refresh()
	return m
}

// Refresh repopulates the device list from the registry's current
// snapshot. Safe to call whenever the caller's own enumeration sweep
// has just run.
func (m *Model) Refresh() {
	devs := m.registry.Devices()
	items := make([]list.Item, 0, len(devs))
	for _, d := range devs {
		items = append(items, deviceItem{dev: d})
	}
	m.list.SetItems(items)
}

func (m Model) Init() tea.Cmd {
	return tickResource()
}

func tickResource() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		snap, err := diag.Read()
		if err != nil {
			return resourceTickMsg{line: "host stats unavailable"}
		}
		return resourceTickMsg{line: snap.String()}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case resourceTickMsg:
		m.resourceLine = msg.line
		if m.copyNoticeTicks > 0 {
			m.copyNoticeTicks--
			if m.copyNoticeTicks == 0 {
				m.copyNotice = ""
			}
		}
		return m, tickResource()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.Refresh()
			return m, nil
		case "c":
			if it, ok := m.list.SelectedItem().(deviceItem); ok {
				if err := clipboard.WriteAll(it.dev.Serial); err == nil {
					m.copyNotice = "copied " + it.dev.Serial + " to clipboard"
					m.copyNoticeTicks = 2
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var notice string
	if m.copyNotice != "" {
		notice = noticeStyle.Render(m.copyNotice)
	}

	detail := "select a device with ↑/↓, c to copy its serial, r to reload the list, q to quit"
	if it, ok := m.list.SelectedItem().(deviceItem); ok {
		detail = ansi.Wordwrap(detailLine(it.dev), maxInt(m.width, 20), "")
	}

	status := statusBarStyle.Render(m.resourceLine)

	return m.list.View() + "\n" + detailStyle.Render(detail) + "\n" + status + " " + notice
}

func detailLine(d *udl.Device) string {
	native := "none"
	if d.Native != nil {
		native = fmt.Sprintf("%dx%d@%dHz", d.Native.Width, d.Native.Height, d.Native.Refresh)
	}
	return fmt.Sprintf("serial=%s type=%s claimed=%v native=%s supported=%d modes",
		d.Serial, d.Type, d.Claimed(), native, len(d.Supported))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
