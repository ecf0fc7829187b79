// Package form is the terminal form that collects the uctovny_doklad
// attributes before a conversion.
package form

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/konvertorxml/konvertorxml/internal/errors"
	"github.com/konvertorxml/konvertorxml/internal/tui/styles"
	"github.com/konvertorxml/konvertorxml/internal/udxml"
	"github.com/konvertorxml/konvertorxml/internal/util"
)

const (
	labelWidth   = 12
	inputWidth   = 40
	summaryWidth = 60
	charLimit    = 200
)

var descriptions = map[string]string{
	udxml.AttrCisloUD:   "Document number",
	udxml.AttrDatumUD:   "Document date, e.g. 30.09.2025",
	udxml.AttrMandantID: "Company (mandant) id",
	udxml.AttrDruhUD:    "Document kind",
	udxml.AttrTypUD:     "Document type",
	udxml.AttrTextUD:    "Document description",
}

// Model is the Bubbletea model of the attribute form.
type Model struct {
	inputs     []textinput.Model
	focus      int
	confirming bool
	confirmed  bool
	canceled   bool
	source     string
	width      int
}

// New creates a form pre-filled with defaults. source names the file being
// converted and is shown in the title.
func New(defaults udxml.Header, source string) Model {
	inputs := make([]textinput.Model, len(udxml.HeaderAttrs))
	for i, name := range udxml.HeaderAttrs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = descriptions[name]
		ti.CharLimit = charLimit
		ti.Width = inputWidth
		ti.SetValue(defaults.Get(name))
		inputs[i] = ti
	}
	m := Model{inputs: inputs, source: source}
	m.focusInput(m.firstEmpty())
	return m
}

// firstEmpty returns the first field without a value so the cursor starts
// where typing is needed.
func (m Model) firstEmpty() int {
	for i, in := range m.inputs {
		if strings.TrimSpace(in.Value()) == "" {
			return i
		}
	}
	return 0
}

func (m *Model) focusInput(i int) {
	n := len(m.inputs)
	i = (i%n + n) % n
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.canceled = true
			return m, tea.Quit
		}
		if m.confirming {
			return m.handleConfirmKeypress(msg)
		}
		return m.handleEditingKeypress(msg)
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) handleEditingKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.canceled = true
		return m, tea.Quit

	case "tab", "down":
		m.focusInput(m.focus + 1)
		return m, textinput.Blink

	case "shift+tab", "up":
		m.focusInput(m.focus - 1)
		return m, textinput.Blink

	case "enter":
		if m.focus == len(m.inputs)-1 {
			m.confirming = true
			m.inputs[m.focus].Blur()
			return m, nil
		}
		m.focusInput(m.focus + 1)
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.confirmed = true
		return m, tea.Quit

	case "n", "N", "esc":
		m.confirming = false
		m.focusInput(0)
		return m, textinput.Blink
	}
	return m, nil
}

// Header returns the values currently entered.
func (m Model) Header() udxml.Header {
	var h udxml.Header
	for i, name := range udxml.HeaderAttrs {
		h.Set(name, strings.TrimSpace(m.inputs[i].Value()))
	}
	return h
}

// Confirmed reports whether the user accepted the summary.
func (m Model) Confirmed() bool { return m.confirmed }

// Canceled reports whether the user aborted the form.
func (m Model) Canceled() bool { return m.canceled }

func (m Model) View() string {
	if m.confirmed || m.canceled {
		return ""
	}

	var b strings.Builder
	title := "Values for <uctovny_doklad>"
	if m.source != "" {
		title += "  " + styles.Muted.Render(util.TruncatePath(m.source, 50))
	}
	if m.width > 0 {
		title = util.TruncateANSI(title, m.width)
	}
	b.WriteString(styles.Title.Render(title))
	b.WriteString("\n")

	if m.confirming {
		b.WriteString(m.renderSummary())
	} else {
		b.WriteString(m.renderFields())
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderFields() string {
	var b strings.Builder
	for i, name := range udxml.HeaderAttrs {
		label := fmt.Sprintf("%-*s", labelWidth, name)
		if i == m.focus {
			b.WriteString(styles.FieldCursor.Render("> "))
			b.WriteString(styles.FieldLabelActive.Render(label))
		} else {
			b.WriteString("  ")
			b.WriteString(styles.FieldLabel.Render(label))
		}
		b.WriteString(" ")
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	if missing := m.Header().Missing(); len(missing) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.FieldRequired.Render("Empty: " + strings.Join(missing, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderSummary() string {
	var lines []string
	for _, a := range m.Header().Attrs() {
		lines = append(lines, fmt.Sprintf("%-*s = %s", labelWidth, a.Name, util.TruncateString(a.Value, summaryWidth)))
	}
	content := "Summary\n\n" + strings.Join(lines, "\n")
	return styles.ContentBox.Render(content) + "\n\n" + styles.Text.Render("Is this correct? [Enter=yes / n=no]")
}

func (m Model) renderHelp() string {
	keyStyle := styles.HelpKey
	if m.confirming {
		return styles.HelpBar.Render(
			keyStyle.Render("y/enter") + " confirm  " +
				keyStyle.Render("n/esc") + " edit  " +
				keyStyle.Render("ctrl+c") + " cancel",
		)
	}
	return styles.HelpBar.Render(
		keyStyle.Render("tab/↓") + " next  " +
			keyStyle.Render("shift+tab/↑") + " previous  " +
			keyStyle.Render("enter") + " next / summary  " +
			keyStyle.Render("esc") + " cancel",
	)
}

// Run shows the form and returns the confirmed header. A canceled form
// yields errors.ErrCanceled.
func Run(defaults udxml.Header, source string, opts ...tea.ProgramOption) (udxml.Header, error) {
	final, err := tea.NewProgram(New(defaults, source), opts...).Run()
	if err != nil {
		return udxml.Header{}, errors.Wrap(err, "form failed")
	}
	m, ok := final.(Model)
	if !ok || !m.Confirmed() {
		return udxml.Header{}, errors.ErrCanceled
	}
	return m.Header(), nil
}
