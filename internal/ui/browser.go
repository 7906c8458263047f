package ui

import (
	"bytes"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"flint/internal/diag"
	"flint/internal/diagfmt"
	"flint/internal/source"
)

var (
	browserTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	browserSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	browserDimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	browserSevStyles     = map[diag.Severity]lipgloss.Style{
		diag.SevInfo:     lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		diag.SevWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		diag.SevError:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		diag.SevCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
)

type browserModel struct {
	findings []diag.Diagnostic
	fs       *source.FileSet
	cursor   int
	offset   int
	height   int
	width    int
}

// NewFindingsBrowser returns a Bubble Tea model for browsing findings: a
// scrollable list with an annotated source snippet for the selection.
func NewFindingsBrowser(findings []diag.Diagnostic, fs *source.FileSet) tea.Model {
	return &browserModel{
		findings: findings,
		fs:       fs,
		height:   24,
		width:    80,
	}
}

func (m *browserModel) Init() tea.Cmd { return nil }

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Height > 0 {
			m.height = msg.Height
		}
		if msg.Width > 0 {
			m.width = msg.Width
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.findings)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = len(m.findings) - 1
		}
		m.clampOffset()
	}
	return m, nil
}

// listRows is how many findings fit above the detail pane.
func (m *browserModel) listRows() int {
	rows := m.height - 10
	if rows < 3 {
		rows = 3
	}
	return rows
}

func (m *browserModel) clampOffset() {
	rows := m.listRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}

func (m *browserModel) View() string {
	var b strings.Builder
	b.WriteString(browserTitleStyle.Render(fmt.Sprintf("findings (%d)", len(m.findings))))
	b.WriteString("\n\n")

	if len(m.findings) == 0 {
		b.WriteString(browserDimStyle.Render("  nothing to show"))
		b.WriteString("\n")
		return b.String()
	}

	rows := m.listRows()
	endRow := m.offset + rows
	if endRow > len(m.findings) {
		endRow = len(m.findings)
	}
	for i := m.offset; i < endRow; i++ {
		d := m.findings[i]
		line := fmt.Sprintf("%-8s %s  %s",
			d.Severity.String(), findingLabel(d), truncate(d.Message, m.width-40))
		if i == m.cursor {
			b.WriteString(browserSelectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + browserSevStyles[d.Severity].Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.detailView())
	b.WriteString("\n")
	b.WriteString(browserDimStyle.Render("  j/k move · g/G jump · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *browserModel) detailView() string {
	var buf bytes.Buffer
	diagfmt.Pretty(&buf, m.findings[m.cursor:m.cursor+1], m.fs, diagfmt.PrettyOpts{
		PathMode:  diagfmt.PathModeRelative,
		Context:   1,
		Width:     m.width - 6,
		ShowNotes: true,
		ShowFixes: true,
	})
	return buf.String()
}

func findingLabel(d diag.Diagnostic) string {
	if d.Code.Internal() {
		return d.Code.String()
	}
	return d.RuleID
}
