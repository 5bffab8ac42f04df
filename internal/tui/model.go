package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/vision-dev1/SafeDrop/internal/config"
	"github.com/vision-dev1/SafeDrop/internal/vault"
	"github.com/vision-dev1/SafeDrop/models"
)

// Состояния (экраны) приложения.
type screenState int

const (
	menuScreen         screenState = iota // Главное меню
	uploadFormScreen                      // Форма загрузки файла
	downloadFormScreen                    // Форма скачивания файла
	deleteFormScreen                      // Форма удаления файла
	fileListScreen                        // Список файлов
	resultScreen                          // Экран результата/ошибки
)

// Пункты главного меню.
const (
	menuActionUpload = iota
	menuActionDownload
	menuActionList
	menuActionDelete
	menuActionCleanup
	menuActionQuit
)

// Константы TUI.
const (
	defaultListWidth  = 80 // Стандартная ширина терминала
	defaultListHeight = 24 // Стандартная высота терминала
	inputWidthOffset  = 6  // Отступ для полей ввода

	keyEnter    = "enter"
	keyEsc      = "esc"
	keyTab      = "tab"
	keyShiftTab = "shift+tab"
)

// Количество полей на формах.
const (
	numUploadInputs   = 4 // путь, срок, автоудаление, заметка
	numDownloadInputs = 2 // идентификатор, каталог
)

// menuItem — пункт главного меню. Реализует интерфейс list.Item.
type menuItem struct {
	title  string
	desc   string
	action int
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// fileItem — строка списка файлов. Реализует интерфейс list.Item.
type fileItem struct {
	rec models.FileRecord
}

func (i fileItem) Title() string {
	return i.rec.ID + "  " + i.rec.OriginalName
}

func (i fileItem) Description() string {
	desc := humanize.Bytes(uint64(i.rec.Size)) //nolint:gosec // Размер неотрицателен по инварианту
	desc += "  |  скачиваний: " + humanize.Comma(int64(i.rec.DownloadCount))
	if i.rec.ExpiresAt != nil {
		desc += "  |  до " + i.rec.ExpiresAt.Local().Format("2006-01-02 15:04")
	} else {
		desc += "  |  бессрочно"
	}
	if i.rec.AutoDelete {
		desc += "  |  автоудаление"
	}
	return desc
}

func (i fileItem) FilterValue() string {
	return i.rec.ID + " " + i.rec.OriginalName
}

// model — состояние TUI. Вся логика работы с файлами живет в vault.Service,
// здесь только сбор ввода и отображение результатов.
type model struct {
	svc *vault.Service
	cfg *config.Config

	state   screenState
	menu    list.Model
	files   list.Model
	inputs  []textinput.Model
	focused int

	working    bool   // Выполняется фоновая операция
	resultText string // Текст для экрана результата
	resultErr  bool   // Результат является ошибкой

	width  int
	height int

	docStyle   lipgloss.Style
	titleStyle lipgloss.Style
	okStyle    lipgloss.Style
	errStyle   lipgloss.Style
	hintStyle  lipgloss.Style
}

// initModel создает начальную модель с главным меню.
func initModel(svc *vault.Service, cfg *config.Config) model {
	items := []list.Item{
		menuItem{"Загрузить файл", "Проверить, зашифровать и сохранить файл", menuActionUpload},
		menuItem{"Скачать файл", "Восстановить файл по идентификатору", menuActionDownload},
		menuItem{"Список файлов", "Показать все сохраненные файлы", menuActionList},
		menuItem{"Удалить файл", "Удалить файл по идентификатору", menuActionDelete},
		menuItem{"Очистить просроченные", "Удалить файлы с истекшим сроком хранения", menuActionCleanup},
		menuItem{"Выход", "Завершить работу SafeDrop", menuActionQuit},
	}

	menu := list.New(items, list.NewDefaultDelegate(), defaultListWidth, defaultListHeight)
	menu.Title = "SafeDrop"
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)

	files := list.New(nil, list.NewDefaultDelegate(), defaultListWidth, defaultListHeight)
	files.Title = "Сохраненные файлы"
	files.SetShowStatusBar(false)

	return model{
		svc:        svc,
		cfg:        cfg,
		state:      menuScreen,
		menu:       menu,
		files:      files,
		width:      defaultListWidth,
		height:     defaultListHeight,
		docStyle:   lipgloss.NewStyle().Margin(1, 2),
		titleStyle: lipgloss.NewStyle().Bold(true),
		okStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		errStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		hintStyle:  lipgloss.NewStyle().Faint(true),
	}
}

// newInput создает текстовое поле с плейсхолдером.
func newInput(placeholder string, width int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Width = width
	ti.CharLimit = 512
	return ti
}
