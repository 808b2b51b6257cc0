package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/wippyai/clayout"
	"github.com/wippyai/clayout/ctype"
)

type interactiveModel struct {
	err      error
	session  *clayout.Session
	types    map[string]ctype.Type
	printer  *printer
	cfg      config
	log      *zap.Logger
	names    []string
	visible  []string
	filter   textinput.Model
	selected int
	state    modelState
}

type modelState int

const (
	stateBrowse modelState = iota
	stateDetail
)

func newInteractiveModel(cfg config, log *zap.Logger) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "filter types"
	ti.Prompt = "/ "
	ti.Width = 40
	ti.Focus()
	return &interactiveModel{
		cfg:     cfg,
		log:     log,
		printer: newPrinter(true),
		filter:  ti,
		state:   stateBrowse,
	}
}

type loadedMsg struct {
	err     error
	session *clayout.Session
	types   map[string]ctype.Type
	names   []string
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.loadTypes, textinput.Blink)
}

func (m *interactiveModel) loadTypes() tea.Msg {
	s, types, err := load(m.cfg, m.log)
	if err != nil {
		return loadedMsg{err: err}
	}
	names, err := selectNames(types, m.cfg.typeName)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{session: s, types: types, names: names}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "up", "ctrl+k":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}
			return m, nil

		case "down", "ctrl+j":
			if m.state == stateBrowse && m.selected < len(m.visible)-1 {
				m.selected++
			}
			return m, nil

		case "enter":
			switch m.state {
			case stateBrowse:
				if len(m.visible) > 0 {
					m.state = stateDetail
					m.filter.Blur()
				}
			case stateDetail:
				m.state = stateBrowse
				m.filter.Focus()
			}
			return m, nil

		case "esc":
			switch m.state {
			case stateDetail:
				m.state = stateBrowse
				m.filter.Focus()
			case stateBrowse:
				if m.filter.Value() == "" {
					return m, tea.Quit
				}
				m.filter.SetValue("")
				m.applyFilter()
			}
			return m, nil

		case "q":
			if m.state == stateDetail {
				return m, tea.Quit
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session = msg.session
		m.types = msg.types
		m.names = msg.names
		m.applyFilter()
		return m, nil
	}

	if m.state == stateBrowse {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
		return m, cmd
	}
	return m, nil
}

// applyFilter keeps the selection on the same name when it is still visible.
func (m *interactiveModel) applyFilter() {
	current := ""
	if m.selected < len(m.visible) {
		current = m.visible[m.selected]
	}
	q := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for _, name := range m.names {
		if q == "" || strings.Contains(strings.ToLower(name), q) {
			m.visible = append(m.visible, name)
		}
	}
	m.selected = 0
	for i, name := range m.visible {
		if name == current {
			m.selected = i
			break
		}
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return m.printer.err.Render(fmt.Sprintf("Error: %v\n\nPress ctrl+c to quit.", m.err))
	}
	if m.session == nil {
		return "Loading types..."
	}

	var b strings.Builder
	b.WriteString(m.printer.header(m.session))
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		for i, name := range m.visible {
			line := name + "  " + m.printer.typ.Render(m.types[name].String())
			if i == m.selected {
				b.WriteString(m.printer.title.Render("> " + name))
				b.WriteString("  " + m.printer.typ.Render(m.types[name].String()))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		if len(m.visible) == 0 {
			b.WriteString(m.printer.help.Render("  no matching types\n"))
		}
		b.WriteString("\n")
		b.WriteString(m.printer.help.Render("↑/↓ select • enter details • esc clear/quit"))

	case stateDetail:
		name := m.visible[m.selected]
		b.WriteString(m.printer.describe(m.session, name, m.types[name]))
		b.WriteString("\n")
		b.WriteString(m.printer.help.Render("enter/esc back • q quit"))
	}

	return b.String()
}

func runInteractive(cfg config, log *zap.Logger) error {
	p := tea.NewProgram(newInteractiveModel(cfg, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
