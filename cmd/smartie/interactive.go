package main

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/smartie/codepage"
	"github.com/wippyai/smartie/narrow"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	bytesStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD166"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// interactivePages are the code pages tab cycles through.
var interactivePages = []uint32{codepage.ACP, 1250, 1251, 1252, 1253, 437, 932, 936, codepage.UTF8}

type interactiveModel struct {
	stringErr error
	shortErr  error
	conv      *codepage.Converter
	input     textinput.Model
	narrow    []byte
	pages     []uint32
	page      int
	units     int
}

func newInteractiveModel(conv *codepage.Converter, cp uint32) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "type text to encode"
	ti.Prompt = "text: "
	ti.CharLimit = 1024
	ti.Width = 60
	ti.Focus()

	pages := interactivePages
	page := 0
	found := false
	for i, p := range pages {
		if p == cp {
			page, found = i, true
			break
		}
	}
	if !found {
		pages = append([]uint32{cp}, pages...)
	}

	m := &interactiveModel{conv: conv, input: ti, pages: pages, page: page}
	m.recompute()
	return m
}

func (m *interactiveModel) codePage() uint32 {
	return m.pages[m.page]
}

func (m *interactiveModel) recompute() {
	text := m.input.Value()
	codec := narrow.NewCodec(m.conv, m.codePage())

	m.units = len(utf16.Encode([]rune(text)))
	m.narrow = nil

	s, err := codec.String(text)
	m.stringErr = err
	if err == nil {
		m.narrow = s.Bytes()
	}
	_, m.shortErr = codec.Short(text)
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.page = (m.page + 1) % len(m.pages)
			m.recompute()
			return m, nil
		case "shift+tab":
			m.page = (m.page + len(m.pages) - 1) % len(m.pages)
			m.recompute()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.recompute()
	return m, cmd
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Smartie Encoder"))
	b.WriteString(" ")
	b.WriteString(labelStyle.Render("code page " + codePageName(m.conv, m.codePage())))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("narrow: "))
	if m.stringErr != nil {
		b.WriteString(errorStyle.Render(m.stringErr.Error()))
	} else {
		b.WriteString(bytesStyle.Render(formatBytes(m.narrow)))
		b.WriteString(fmt.Sprintf("  (%d bytes)", len(m.narrow)))
	}
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("short:  "))
	usage := fmt.Sprintf("%d/%d units", m.units, narrow.ShortMaxUnits)
	switch {
	case m.shortErr != nil:
		b.WriteString(errorStyle.Render(usage + " - " + m.shortErr.Error()))
	case m.units > narrow.ShortMaxUnits*3/4:
		b.WriteString(warnStyle.Render(usage))
	default:
		b.WriteString(bytesStyle.Render(usage))
	}
	b.WriteString("\n\n")

	b.WriteString(helpStyle.Render("tab/shift+tab code page • esc quit"))
	return b.String()
}

func runInteractive(conv *codepage.Converter, cp uint32) error {
	p := tea.NewProgram(newInteractiveModel(conv, cp), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
