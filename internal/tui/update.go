package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Update — главный цикл обработки сообщений: глобальные события,
// завершение фоновых операций, затем делегирование текущему экрану.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	// == Глобальные сообщения ==
	case tea.WindowSizeMsg:
		h, v := m.docStyle.GetFrameSize()
		m.width = msg.Width
		m.height = msg.Height
		m.menu.SetSize(msg.Width-h, msg.Height-v)
		m.files.SetSize(msg.Width-h, msg.Height-v)
		for i := range m.inputs {
			m.inputs[i].Width = msg.Width - h - inputWidthOffset
		}
		return m, nil

	// == Завершение фоновых операций ==
	case uploadDoneMsg:
		m.working = false
		if msg.err != nil {
			return m.showError(describeError(msg.err))
		}
		return m.showResult(formatUploadResult(msg.res))

	case downloadDoneMsg:
		m.working = false
		if msg.err != nil {
			return m.showError(describeError(msg.err))
		}
		return m.showResult(formatDownloadResult(msg.res))

	case listDoneMsg:
		m.working = false
		if msg.err != nil {
			return m.showError(describeError(msg.err))
		}
		m.setFileItems(msg.records)
		m.state = fileListScreen
		return m, nil

	case deleteDoneMsg:
		m.working = false
		if msg.err != nil {
			return m.showError(describeError(msg.err))
		}
		return m.showResult(fmt.Sprintf("Файл %s удален.", msg.id))

	case cleanupDoneMsg:
		m.working = false
		if msg.err != nil {
			return m.showError(describeError(msg.err))
		}
		return m.showResult(fmt.Sprintf("Удалено просроченных файлов: %d.", msg.removed))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	// Пока идет фоновая операция, ввод не обрабатывается.
	if m.working {
		return m, nil
	}

	// == Делегирование обработчику текущего экрана ==
	switch m.state {
	case menuScreen:
		return m.updateMenuScreen(msg)
	case uploadFormScreen, downloadFormScreen, deleteFormScreen:
		return m.updateFormScreen(msg)
	case fileListScreen:
		return m.updateFileListScreen(msg)
	case resultScreen:
		return m.updateResultScreen(msg)
	}
	return m, nil
}

// showResult переключает модель на экран результата.
func (m *model) showResult(text string) (tea.Model, tea.Cmd) {
	m.state = resultScreen
	m.resultText = text
	m.resultErr = false
	return m, nil
}

// showError переключает модель на экран результата с ошибкой.
func (m *model) showError(text string) (tea.Model, tea.Cmd) {
	m.state = resultScreen
	m.resultText = text
	m.resultErr = true
	return m, nil
}
