package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todod/internals/schemas"
	"todod/internals/timeouts"
	"todod/sdk"
)

type newSessionModel struct {
	inputs    []textinput.Model
	focus     int
	submitted bool
	cancelled bool
}

// Run shows the new-session form and, on submit, plans a session through
// the daemon and prints the resulting task list.
func Run(client *sdk.Client) error {
	goal, model, submitted, err := runNewSessionForm()
	if err != nil {
		return err
	}
	if !submitted {
		return nil
	}
	if goal == "" {
		return fmt.Errorf("goal must not be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.OracleCall)
	defer cancel()

	response, err := client.CreateSession(ctx, schemas.SessionCreateRequest{Goal: goal, Model: model})
	if err != nil {
		return err
	}

	fmt.Printf("session %s created\n", response.SessionID)
	for _, task := range response.State.Tasks {
		fmt.Printf("[%d] %s\n", task.ID, task.Title)
		if task.Description != "" {
			fmt.Printf("    %s\n", task.Description)
		}
	}
	return nil
}

func runNewSessionForm() (string, string, bool, error) {
	model := newNewSessionModel()
	program := tea.NewProgram(model)
	result, err := program.Run()
	if err != nil {
		return "", "", false, err
	}
	finalModel, ok := result.(newSessionModel)
	if !ok {
		return "", "", false, nil
	}
	if finalModel.cancelled || !finalModel.submitted {
		return "", "", false, nil
	}
	goal := strings.TrimSpace(finalModel.inputs[0].Value())
	oracleModel := strings.TrimSpace(finalModel.inputs[1].Value())
	return goal, oracleModel, true, nil
}

func newNewSessionModel() newSessionModel {
	goal := textinput.New()
	goal.Prompt = "Goal: "

	model := textinput.New()
	model.Prompt = "Model (optional): "

	inputs := []textinput.Model{goal, model}
	inputs[0].Focus()
	return newSessionModel{inputs: inputs}
}

func (m newSessionModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m newSessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "tab":
			return m.moveFocus(1)
		case "shift+tab":
			return m.moveFocus(-1)
		case "enter":
			if m.focus == len(m.inputs)-1 {
				m.submitted = true
				return m, tea.Quit
			}
			return m.moveFocus(1)
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m newSessionModel) View() string {
	lines := []string{"New session", ""}
	for i, input := range m.inputs {
		marker := " "
		if i == m.focus {
			marker = ">"
		}
		lines = append(lines, fmt.Sprintf("%s %s", marker, input.View()))
	}
	lines = append(lines, "", "Tab: next field  Enter: submit  Ctrl+C: cancel")
	return strings.Join(lines, "\n")
}

func (m newSessionModel) moveFocus(delta int) (tea.Model, tea.Cmd) {
	if len(m.inputs) == 0 {
		return m, nil
	}
	m.inputs[m.focus].Blur()
	count := len(m.inputs)
	m.focus = (m.focus + delta + count) % count
	return m, m.inputs[m.focus].Focus()
}
