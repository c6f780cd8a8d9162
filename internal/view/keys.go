package view

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) handleKey(key tea.KeyMsg) tea.Cmd {
	if key.String() == "ctrl+c" {
		return tea.Quit
	}

	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(key)
	case modeEdit:
		return m.handleEditKey(key)
	case modeCreate:
		return m.handleCreateKey(key)
	case modeConfirmDelete:
		return m.dispatch(IntentConfirmDelete{Accept: key.String() == "y" || key.String() == "Y"})
	}

	m.notice = ""
	switch key.String() {
	case "q":
		return tea.Quit
	case "/":
		m.mode = modeSearch
		return m.searchInput.Focus()
	case "n", "right", "pgdown":
		return m.dispatch(IntentNext{})
	case "p", "left", "pgup":
		return m.dispatch(IntentPrev{})
	case "g", "home":
		return m.dispatch(IntentFirst{})
	case "r":
		return m.dispatch(IntentRefresh{})
	case "up", "k":
		m.selected = clampIndex(m.selected-1, len(m.state.Records))
	case "down", "j":
		m.selected = clampIndex(m.selected+1, len(m.state.Records))
	case "e", "enter":
		return m.startEdit()
	case "d", "delete":
		if rec, ok := m.selectedRecord(); ok {
			return m.dispatch(IntentRequestDelete{ID: rec.ID})
		}
	case "c":
		m.mode = modeCreate
		m.createFocus = 0
		return focusOnly(m.createInputs, 0)
	case "y":
		if rec, ok := m.selectedRecord(); ok {
			return m.dispatch(IntentYank{ID: rec.ID})
		}
	}
	return nil
}

func (m *Model) handleSearchKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "enter":
		m.mode = modeBrowse
		m.searchInput.Blur()
		m.searchToken++
		if m.searchInput.Value() == m.state.Search {
			return nil
		}
		return m.dispatch(IntentSearch{Text: m.searchInput.Value()})
	case "esc":
		// drops any pending debounce and the edited text
		m.mode = modeBrowse
		m.searchInput.Blur()
		m.searchToken++
		m.searchInput.SetValue(m.state.Search)
		return nil
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(key)
	if m.searchInput.Value() == before {
		return cmd
	}

	m.searchToken++
	token, text := m.searchToken, m.searchInput.Value()
	return tea.Batch(cmd, tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return searchDebounceMsg{token: token, text: text}
	}))
}

func (m *Model) startEdit() tea.Cmd {
	rec, ok := m.selectedRecord()
	if !ok {
		return nil
	}
	m.mode = modeEdit
	m.editID = rec.ID
	m.editFocus = 0
	m.editInputs = newFieldInputs()
	m.editInputs[inputName].SetValue(rec.Fields.Name)
	m.editInputs[inputEmail].SetValue(rec.Fields.Email)
	m.editInputs[inputPhone].SetValue(rec.Fields.Phone)
	return focusOnly(m.editInputs, 0)
}

func (m *Model) handleEditKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "esc":
		m.mode = modeBrowse
		m.editID = ""
		return nil
	case "enter":
		id, fields := m.editID, fieldsFrom(m.editInputs)
		m.mode = modeBrowse
		m.editID = ""
		return m.dispatch(IntentSave{ID: id, Fields: fields})
	case "tab", "down":
		m.editFocus = (m.editFocus + 1) % inputCount
		return focusOnly(m.editInputs, m.editFocus)
	case "shift+tab", "up":
		m.editFocus = (m.editFocus + inputCount - 1) % inputCount
		return focusOnly(m.editInputs, m.editFocus)
	}
	var cmd tea.Cmd
	m.editInputs[m.editFocus], cmd = m.editInputs[m.editFocus].Update(key)
	return cmd
}

func (m *Model) handleCreateKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "esc":
		m.mode = modeBrowse
		m.resetCreateForm()
		return nil
	case "enter":
		return m.dispatch(IntentCreate{Fields: fieldsFrom(m.createInputs)})
	case "tab", "down":
		m.createFocus = (m.createFocus + 1) % inputCount
		return focusOnly(m.createInputs, m.createFocus)
	case "shift+tab", "up":
		m.createFocus = (m.createFocus + inputCount - 1) % inputCount
		return focusOnly(m.createInputs, m.createFocus)
	}
	var cmd tea.Cmd
	m.createInputs[m.createFocus], cmd = m.createInputs[m.createFocus].Update(key)
	return cmd
}

func focusOnly(inputs []textinput.Model, index int) tea.Cmd {
	var cmd tea.Cmd
	for i := range inputs {
		if i == index {
			cmd = inputs[i].Focus()
			continue
		}
		inputs[i].Blur()
	}
	return cmd
}
