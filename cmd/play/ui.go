package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jhin-exe/weave/pkg/audio"
	"github.com/jhin-exe/weave/pkg/engine"
	"github.com/jhin-exe/weave/pkg/format"
	"github.com/jhin-exe/weave/pkg/render"
)

var (
	scenePanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(3)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	choiceKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	quoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

// screen is the render sink the UI draws from.
type screen struct {
	view render.View
}

func (s *screen) Show(v render.View) { s.view = v }

// PlayUI is the BubbleTea model of the terminal player.
// https://github.com/charmbracelet/bubbletea
type PlayUI struct {
	engine    *engine.Engine
	presenter *render.Presenter
	screen    *screen
	saveFile  string

	sceneViewport viewport.Model
	metaViewport  viewport.Model
	ready         bool
	width         int
	height        int

	status    string
	statusErr bool

	showQuitModal bool
}

func NewPlayUI(e *engine.Engine, player audio.Player, saveFile string) PlayUI {
	sceneVp := viewport.New(50, 20)
	sceneVp.MouseWheelEnabled = true

	m := PlayUI{
		engine:        e,
		presenter:     render.NewPresenter(player),
		screen:        &screen{},
		saveFile:      saveFile,
		sceneViewport: sceneVp,
		metaViewport:  viewport.New(20, 20),
	}
	m.presenter.Publish(e, m.screen)
	return m
}

func (m PlayUI) Init() tea.Cmd {
	return tea.SetWindowTitle(m.engine.Title())
}

func (m PlayUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "ctrl+c":
			return m, tea.Quit
		case "q", "esc":
			m.showQuitModal = true
			return m, nil
		case "r":
			if err := m.engine.Restart(); err != nil {
				m.setStatus(fmt.Sprintf("Restart failed: %v", err), true)
			} else {
				m.setStatus("Story restarted.", false)
			}
			m.publish()
			return m, nil
		case "s":
			m.save()
			return m, nil
		case "c":
			m.copySnapshot()
			return m, nil
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			m.choose(int(key[0] - '1'))
			return m, nil
		}
	}

	m.sceneViewport, vpCmd = m.sceneViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(vpCmd, mvCmd)
}

// choose activates the n-th visible choice, counting from zero.
func (m *PlayUI) choose(n int) {
	choices := m.screen.view.Choices
	if n >= len(choices) {
		return
	}
	if _, err := m.engine.ActivateChoice(choices[n].Index); err != nil {
		m.setStatus(fmt.Sprintf("Could not take that choice: %v", err), true)
	} else {
		m.status = ""
	}
	m.publish()
}

func (m *PlayUI) save() {
	data, err := m.engine.Snapshot()
	if err == nil {
		err = os.WriteFile(m.saveFile, data, 0o644)
	}
	if err != nil {
		m.setStatus(fmt.Sprintf("Save failed: %v", err), true)
	} else {
		m.setStatus("Saved to "+m.saveFile, false)
	}
	m.refresh()
}

func (m *PlayUI) copySnapshot() {
	data, err := m.engine.Snapshot()
	if err == nil {
		err = clipboard.WriteAll(string(data))
	}
	if err != nil {
		m.setStatus(fmt.Sprintf("Copy failed: %v", err), true)
	} else {
		m.setStatus("Snapshot copied to clipboard.", false)
	}
	m.refresh()
}

func (m *PlayUI) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

func (m *PlayUI) publish() {
	m.presenter.Publish(m.engine, m.screen)
	m.refresh()
}

func (m *PlayUI) resize() {
	sceneWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - sceneWidth - 6

	m.sceneViewport.Width = sceneWidth - 4
	m.sceneViewport.Height = m.height - 4
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 3
}

func (m *PlayUI) refresh() {
	if !m.ready {
		return
	}
	m.sceneViewport.SetContent(writeScene(m.screen.view, m.sceneViewport.Width-4))
	m.sceneViewport.GotoTop()
	m.metaViewport.SetContent(writeMetadata(m.engine, m.screen.view))
}

func writeScene(v render.View, width int) string {
	var content strings.Builder

	if v.NotFound {
		content.WriteString(errorStyle.Render(v.Text) + "\n\n")
	} else {
		content.WriteString(toTerminal(v.Text, width) + "\n\n")
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(width, 10))) + "\n\n")

	if v.DeadEnd {
		content.WriteString(titleStyle.Render("The End") + "\n")
		content.WriteString(promptStyle.Render("Press r to start over or q to quit.") + "\n")
		return content.String()
	}

	for i, c := range v.Choices {
		if i == 9 {
			content.WriteString(promptStyle.Render(fmt.Sprintf("(%d more choices not shown)", len(v.Choices)-9)) + "\n")
			break
		}
		content.WriteString(choiceKeyStyle.Render(fmt.Sprintf("%d.", i+1)) + " " + toTerminal(c.Label, width-3) + "\n")
	}
	return content.String()
}

func writeMetadata(e *engine.Engine, v render.View) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render(strings.ToUpper(e.Title())) + "\n\n")

	content.WriteString("Scene:\n")
	content.WriteString(v.SceneID + "\n\n")

	content.WriteString("Inventory:\n")
	if len(v.Inventory) == 0 {
		content.WriteString("Empty\n")
	}
	for _, label := range v.Inventory {
		content.WriteString("• " + label + "\n")
	}
	content.WriteString("\n")

	content.WriteString("Variables:\n")
	if st := e.State(); st != nil && len(st.Variables) > 0 {
		names := make([]string, 0, len(st.Variables))
		for name := range st.Variables {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			content.WriteString(fmt.Sprintf("• %s: %s\n", name, format.FormatNumber(st.Variables[name])))
		}
	} else {
		content.WriteString("None set\n")
	}

	content.WriteString("\n")
	content.WriteString("Keys:\n")
	content.WriteString("• 1-9: Choose\n")
	content.WriteString("• r: Restart\n")
	content.WriteString("• s: Save\n")
	content.WriteString("• c: Copy save\n")
	content.WriteString("• q: Quit\n")

	return content.String()
}

func (m PlayUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "enter", "y", "Y":
			return m, tea.Quit
		case "n", "N", "esc":
			m.showQuitModal = false
			m.refresh()
		}
	}
	return m, nil
}

func (m PlayUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Progress since your last save will be lost.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to keep playing"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m PlayUI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	sceneWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - sceneWidth - 6

	status := promptStyle.Render("1-9 choose · r restart · s save · c copy · q quit")
	if m.status != "" {
		if m.statusErr {
			status = errorStyle.Render(m.status)
		} else {
			status = statusStyle.Render(m.status)
		}
	}

	scenePanel := scenePanelStyle.Width(sceneWidth).Height(m.height - 1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.sceneViewport.View(),
			"",
			status,
		),
	)
	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 1).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, scenePanel, metaPanel)
}
