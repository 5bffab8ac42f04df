package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vision-dev1/SafeDrop/internal/vault"
	"github.com/vision-dev1/SafeDrop/models"
)

// Сообщения о завершении фоновых операций ядра.
type (
	uploadDoneMsg struct {
		res *vault.UploadResult
		err error
	}
	downloadDoneMsg struct {
		res *vault.DownloadResult
		err error
	}
	listDoneMsg struct {
		records []models.FileRecord
		err     error
	}
	deleteDoneMsg struct {
		id  string
		err error
	}
	cleanupDoneMsg struct {
		removed int
		err     error
	}
)

// uploadCmd запускает прием файла в фоне.
func uploadCmd(svc *vault.Service, path string, opts vault.UploadOptions) tea.Cmd {
	return func() tea.Msg {
		res, err := svc.Upload(path, opts)
		return uploadDoneMsg{res: res, err: err}
	}
}

// downloadCmd запускает выдачу файла в фоне.
func downloadCmd(svc *vault.Service, id, destDir string) tea.Cmd {
	return func() tea.Msg {
		res, err := svc.Download(id, destDir)
		return downloadDoneMsg{res: res, err: err}
	}
}

// listCmd запрашивает список файлов.
func listCmd(svc *vault.Service) tea.Cmd {
	return func() tea.Msg {
		records, err := svc.List()
		return listDoneMsg{records: records, err: err}
	}
}

// deleteCmd удаляет файл по идентификатору.
func deleteCmd(svc *vault.Service, id string) tea.Cmd {
	return func() tea.Msg {
		return deleteDoneMsg{id: id, err: svc.Delete(id)}
	}
}

// cleanupCmd запускает очистку просроченных файлов.
func cleanupCmd(svc *vault.Service) tea.Cmd {
	return func() tea.Msg {
		removed, err := svc.CleanupExpired()
		return cleanupDoneMsg{removed: removed, err: err}
	}
}
