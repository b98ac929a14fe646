package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/shared"
)

const (
	fieldMinutes = iota
	fieldPages
	fieldNotes
	fieldDate
)

var fieldLabels = []string{"Minutes", "Pages", "Notes", "Date"}

// sessionForm collects the fields of a new reading session.
type sessionForm struct {
	inputs     []textinput.Model
	focus      int
	submitting bool
	err        string
	saved      string
}

func newSessionForm(today time.Time) sessionForm {
	inputs := make([]textinput.Model, len(fieldLabels))
	for i := range inputs {
		input := textinput.New()
		input.Prompt = ""
		inputs[i] = input
	}

	inputs[fieldMinutes].Placeholder = "30"
	inputs[fieldMinutes].CharLimit = 5
	inputs[fieldPages].Placeholder = "20"
	inputs[fieldPages].CharLimit = 5
	inputs[fieldNotes].Placeholder = "optional"
	inputs[fieldNotes].CharLimit = 280
	inputs[fieldDate].Placeholder = shared.DateLayout
	inputs[fieldDate].CharLimit = len(shared.DateLayout)
	inputs[fieldDate].SetValue(today.Format(shared.DateLayout))

	inputs[fieldMinutes].Focus()
	return sessionForm{inputs: inputs}
}

// move shifts focus by delta fields, wrapping around.
func (f *sessionForm) move(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

func (f *sessionForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// session builds a session for owner from the inputs.
func (f *sessionForm) session(owner string) (*models.ReadingSession, error) {
	minutes, err := parseCount(f.inputs[fieldMinutes].Value(), "minutes")
	if err != nil {
		return nil, err
	}
	pages, err := parseCount(f.inputs[fieldPages].Value(), "pages")
	if err != nil {
		return nil, err
	}
	date, err := shared.ParseDate(strings.TrimSpace(f.inputs[fieldDate].Value()))
	if err != nil {
		return nil, err
	}

	session := models.NewReadingSession(owner, minutes, pages, strings.TrimSpace(f.inputs[fieldNotes].Value()), date)
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return session, nil
}

func (f *sessionForm) view() string {
	var b strings.Builder
	for i, input := range f.inputs {
		label := fmt.Sprintf("%-8s", fieldLabels[i])
		if i == f.focus {
			label = styles.current.Render(label)
		}
		fmt.Fprintf(&b, "%s %s\n", label, input.View())
	}

	switch {
	case f.submitting:
		b.WriteString("\nSaving...\n")
	case f.err != "":
		b.WriteString("\n" + styles.err.Render("Error: "+f.err) + "\n")
	case f.saved != "":
		b.WriteString("\n" + styles.ok.Render(f.saved) + "\n")
	}
	return b.String()
}

func parseCount(raw, field string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", shared.ErrMissingArgument, field)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a whole number", shared.ErrInvalidInput, field)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s cannot be negative", shared.ErrInvalidInput, field)
	}
	return n, nil
}
