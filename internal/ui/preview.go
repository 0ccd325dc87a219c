package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/L235/MWRecentChangesReport/internal/models"
)

const previewTableHeight = 20

// previewModel shows the aggregated changes in a scrollable table before
// the operator decides whether to send
type previewModel struct {
	table  table.Model
	window models.Window
}

func newPreviewModel(groups []models.ChangeGroup, window models.Window) previewModel {
	columns := []table.Column{
		{Title: "Time", Width: 13},
		{Title: "Page", Width: 32},
		{Title: "User", Width: 18},
		{Title: "Bytes", Width: 7},
		{Title: "Comment", Width: 42},
	}

	var rows []table.Row
	for _, g := range groups {
		for _, c := range g.Changes {
			delta := ""
			if c.HasSizes {
				delta = fmt.Sprintf("%+d", c.SizeDelta)
			}
			rows = append(rows, table.Row{
				c.Timestamp.Format("Jan 02 15:04"),
				g.Title,
				c.User,
				delta,
				c.Comment,
			})
		}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(previewTableHeight),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		Bold(true).
		Foreground(pink).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(cyan).
		BorderBottom(true)
	s.Selected = s.Selected.
		Foreground(yellow).
		Bold(true)
	t.SetStyles(s)

	return previewModel{table: t, window: window}
}

func (m previewModel) Init() tea.Cmd {
	return nil
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "enter", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		height := msg.Height - 6
		if height > 4 && height < previewTableHeight {
			m.table.SetHeight(height)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m previewModel) View() string {
	header := titleStyle.Render(fmt.Sprintf("Digest preview: %s", m.window.DateRange()))
	help := subtitleStyle.Render("up/down scroll · q/enter continue")
	return header + "\n" + m.table.View() + "\n" + help + "\n"
}

// RunPreview displays the change table and blocks until the operator
// dismisses it
func RunPreview(groups []models.ChangeGroup, window models.Window) error {
	if len(groups) == 0 {
		return nil
	}
	p := tea.NewProgram(newPreviewModel(groups, window))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}
	return nil
}

// ConfirmSend asks whether to deliver the previewed digest
func ConfirmSend(subject, recipient string) (bool, error) {
	var confirm bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Send digest email?").
				Description(fmt.Sprintf("%q to %s", subject, recipient)).
				Affirmative("Send").
				Negative("Cancel").
				Value(&confirm),
		),
	)

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt cancelled: %w", err)
	}
	return confirm, nil
}
