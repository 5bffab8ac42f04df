// Package tui — интерактивная оболочка SafeDrop поверх ядра vault.
// Оболочка только собирает ввод пользователя и отображает результаты;
// никакая логика приема и выдачи файлов здесь не живет.
package tui

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vision-dev1/SafeDrop/internal/config"
	"github.com/vision-dev1/SafeDrop/internal/vault"
)

// Init возвращает начальную команду приложения.
func (m *model) Init() tea.Cmd {
	return nil
}

// Start запускает TUI приложение и блокируется до выхода пользователя.
func Start(svc *vault.Service, cfg *config.Config) {
	m := initModel(svc, cfg)

	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("Ошибка при запуске TUI", "error", err)
		fmt.Fprintf(os.Stderr, "Ошибка интерфейса: %v\n", err)
		os.Exit(1)
	}
}
