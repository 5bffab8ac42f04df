package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vision-dev1/SafeDrop/internal/vault"
	"github.com/vision-dev1/SafeDrop/models"
)

// updateMenuScreen обрабатывает главное меню.
func (m *model) updateMenuScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == keyEnter {
		item, ok := m.menu.SelectedItem().(menuItem)
		if !ok {
			return m, nil
		}
		switch item.action {
		case menuActionUpload:
			m.openUploadForm()
			return m, nil
		case menuActionDownload:
			m.openDownloadForm()
			return m, nil
		case menuActionDelete:
			m.openDeleteForm()
			return m, nil
		case menuActionList:
			m.working = true
			return m, listCmd(m.svc)
		case menuActionCleanup:
			m.working = true
			return m, cleanupCmd(m.svc)
		case menuActionQuit:
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return m, cmd
}

// openUploadForm подготавливает поля формы загрузки.
func (m *model) openUploadForm() {
	width := m.width - inputWidthOffset
	m.inputs = []textinput.Model{
		newInput("Путь к файлу", width),
		newInput(fmt.Sprintf("Срок хранения в днях, 0 — бессрочно (по умолчанию %d)", m.cfg.DefaultExpiryDays), width),
		newInput("Удалить после первого скачивания? y/n (по умолчанию n)", width),
		newInput("Заметка (необязательно)", width),
	}
	m.focused = 0
	m.inputs[0].Focus()
	m.state = uploadFormScreen
}

// openDownloadForm подготавливает поля формы скачивания.
func (m *model) openDownloadForm() {
	width := m.width - inputWidthOffset
	m.inputs = []textinput.Model{
		newInput("Идентификатор файла (XXXX-XXXX-XXXX)", width),
		newInput("Каталог для сохранения (по умолчанию текущий)", width),
	}
	m.focused = 0
	m.inputs[0].Focus()
	m.state = downloadFormScreen
}

// openDeleteForm подготавливает поле формы удаления.
func (m *model) openDeleteForm() {
	m.inputs = []textinput.Model{
		newInput("Идентификатор файла (XXXX-XXXX-XXXX)", m.width-inputWidthOffset),
	}
	m.focused = 0
	m.inputs[0].Focus()
	m.state = deleteFormScreen
}

// updateFormScreen обрабатывает формы с текстовыми полями:
// tab/shift+tab — переход между полями, enter на последнем поле —
// отправка, esc — возврат в меню.
func (m *model) updateFormScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case keyEsc:
			m.state = menuScreen
			return m, nil

		case keyTab, keyShiftTab:
			if key.String() == keyTab {
				m.focused = (m.focused + 1) % len(m.inputs)
			} else {
				m.focused = (m.focused - 1 + len(m.inputs)) % len(m.inputs)
			}
			for i := range m.inputs {
				if i == m.focused {
					m.inputs[i].Focus()
				} else {
					m.inputs[i].Blur()
				}
			}
			return m, nil

		case keyEnter:
			if m.focused < len(m.inputs)-1 {
				// Enter на промежуточном поле ведет себя как tab.
				m.inputs[m.focused].Blur()
				m.focused++
				m.inputs[m.focused].Focus()
				return m, nil
			}
			return m.submitForm()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

// submitForm собирает значения полей и запускает операцию ядра.
func (m *model) submitForm() (tea.Model, tea.Cmd) {
	switch m.state {
	case uploadFormScreen:
		path := strings.TrimSpace(m.inputs[0].Value())
		if path == "" {
			return m.showError("Путь к файлу не указан.")
		}

		expiryDays := m.cfg.DefaultExpiryDays
		if raw := strings.TrimSpace(m.inputs[1].Value()); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return m.showError("Срок хранения должен быть целым числом дней.")
			}
			expiryDays = parsed
		}

		opts := vault.UploadOptions{
			ExpiryDays: expiryDays,
			AutoDelete: parseYesNo(m.inputs[2].Value()),
			Note:       strings.TrimSpace(m.inputs[3].Value()),
		}
		m.working = true
		return m, uploadCmd(m.svc, path, opts)

	case downloadFormScreen:
		id := strings.TrimSpace(m.inputs[0].Value())
		if id == "" {
			return m.showError("Идентификатор не указан.")
		}
		destDir := strings.TrimSpace(m.inputs[1].Value())
		if destDir == "" {
			destDir = "."
		}
		m.working = true
		return m, downloadCmd(m.svc, id, destDir)

	case deleteFormScreen:
		id := strings.TrimSpace(m.inputs[0].Value())
		if id == "" {
			return m.showError("Идентификатор не указан.")
		}
		m.working = true
		return m, deleteCmd(m.svc, id)
	}
	return m, nil
}

// updateFileListScreen обрабатывает список файлов.
func (m *model) updateFileListScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == keyEsc {
		m.state = menuScreen
		return m, nil
	}

	var cmd tea.Cmd
	m.files, cmd = m.files.Update(msg)
	return m, cmd
}

// updateResultScreen ждет подтверждения и возвращает в меню.
func (m *model) updateResultScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case keyEnter, keyEsc:
			m.state = menuScreen
			return m, nil
		}
	}
	return m, nil
}

// setFileItems заполняет список файлов записями.
func (m *model) setFileItems(records []models.FileRecord) {
	items := make([]list.Item, 0, len(records))
	for _, rec := range records {
		items = append(items, fileItem{rec: rec})
	}
	m.files.SetItems(items)
}

// View отрисовывает текущий экран.
func (m *model) View() string {
	if m.working {
		return m.docStyle.Render("Выполняется операция...")
	}

	switch m.state {
	case menuScreen:
		return m.docStyle.Render(m.menu.View())

	case uploadFormScreen:
		return m.renderForm("Загрузка файла")

	case downloadFormScreen:
		return m.renderForm("Скачивание файла")

	case deleteFormScreen:
		return m.renderForm("Удаление файла")

	case fileListScreen:
		return m.docStyle.Render(
			m.files.View() + "\n" + m.hintStyle.Render("esc — назад в меню"),
		)

	case resultScreen:
		style := m.okStyle
		if m.resultErr {
			style = m.errStyle
		}
		return m.docStyle.Render(
			style.Render(m.resultText) + "\n\n" + m.hintStyle.Render("enter — в меню"),
		)
	}
	return ""
}

// renderForm отрисовывает форму с текстовыми полями.
func (m *model) renderForm(title string) string {
	var b strings.Builder
	b.WriteString(m.titleStyle.Render(title))
	b.WriteString("\n\n")
	for i := range m.inputs {
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.hintStyle.Render("tab — следующее поле, enter — отправить, esc — отмена"))
	return m.docStyle.Render(b.String())
}
