// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// PromptApprover returns an Approver that asks on the terminal.
func PromptApprover() Approver {
	return func(ctx context.Context, prompt string) (bool, error) {
		p := tea.NewProgram(confirmModel{prompt: prompt}, tea.WithContext(ctx))
		m, err := p.Run()
		if err != nil {
			return false, err
		}
		return m.(confirmModel).approved, nil
	}
}

type confirmModel struct {
	prompt   string
	approved bool
	done     bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "Y":
			m.approved = true
			m.done = true
			return m, tea.Quit
		case "n", "N", "q", "esc", "ctrl+c":
			m.approved = false
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		if m.approved {
			return fmt.Sprintf("%s yes\n", m.prompt)
		}
		return fmt.Sprintf("%s no\n", m.prompt)
	}
	return fmt.Sprintf("%s [y/N] ", m.prompt)
}
