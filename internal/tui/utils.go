package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/vision-dev1/SafeDrop/internal/vault"
)

// parseYesNo трактует пользовательский ввод как логическое значение.
// Пустая строка и все, кроме явного "да", считаются отказом.
func parseYesNo(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes", "д", "да", "true", "1":
		return true
	default:
		return false
	}
}

// describeError переводит типизированную ошибку ядра в сообщение для
// пользователя. Ядро о терминале не знает, отображение — забота TUI.
func describeError(err error) string {
	var sizeErr *vault.SizeLimitError
	if errors.As(err, &sizeErr) {
		return fmt.Sprintf("Файл слишком большой: %s при лимите %s.",
			humanize.Bytes(uint64(sizeErr.Size)),  //nolint:gosec // Размер неотрицателен
			humanize.Bytes(uint64(sizeErr.Limit))) //nolint:gosec // Лимит положителен
	}

	var scanErr *vault.ScanRejectedError
	if errors.As(err, &scanErr) {
		var b strings.Builder
		b.WriteString("Файл отклонен проверкой безопасности:\n")
		for _, reason := range scanErr.Reasons {
			b.WriteString("  • ")
			b.WriteString(reason)
			b.WriteString("\n")
		}
		return strings.TrimRight(b.String(), "\n")
	}

	switch {
	case errors.Is(err, vault.ErrNotFound):
		return "Файл не найден. Проверьте идентификатор."
	case errors.Is(err, vault.ErrInvalidID):
		return "Недопустимый формат идентификатора. Ожидается XXXX-XXXX-XXXX."
	case errors.Is(err, vault.ErrIntegrity):
		return "Файл поврежден или ключ не подходит. Скачивание невозможно."
	case errors.Is(err, vault.ErrLockTimeout):
		return "Хранилище занято другим процессом. Повторите попытку."
	case errors.Is(err, vault.ErrEmptyFile):
		return "Файл пуст. Загрузка пустых файлов не поддерживается."
	case errors.Is(err, vault.ErrExpiryOutOfRange):
		return "Срок хранения вне допустимого диапазона."
	default:
		return fmt.Sprintf("Ошибка: %v", err)
	}
}

// formatUploadResult готовит текст карточки принятого файла.
func formatUploadResult(res *vault.UploadResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Файл принят.\n\n")
	fmt.Fprintf(&b, "Идентификатор: %s\n", res.ID)
	fmt.Fprintf(&b, "Имя:           %s\n", res.OriginalName)
	fmt.Fprintf(&b, "Размер:        %s\n", humanize.Bytes(uint64(res.Size))) //nolint:gosec // Размер неотрицателен
	if res.ExpiresAt != nil {
		fmt.Fprintf(&b, "Хранится до:   %s\n", res.ExpiresAt.Local().Format("2006-01-02 15:04"))
	} else {
		fmt.Fprintf(&b, "Хранится:      бессрочно\n")
	}
	if res.AutoDelete {
		fmt.Fprintf(&b, "\nФайл будет удален после первого скачивания.")
	}
	return b.String()
}

// formatDownloadResult готовит текст результата скачивания.
func formatDownloadResult(res *vault.DownloadResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Файл восстановлен.\n\n")
	fmt.Fprintf(&b, "Имя:        %s\n", res.OriginalName)
	fmt.Fprintf(&b, "Сохранен в: %s\n", res.Path)
	fmt.Fprintf(&b, "Размер:     %s\n", humanize.Bytes(uint64(res.Size))) //nolint:gosec // Размер неотрицателен
	fmt.Fprintf(&b, "Скачиваний: %d\n", res.DownloadCount)
	if res.AutoDeleted {
		fmt.Fprintf(&b, "\nФайл удален из хранилища SafeDrop (автоудаление).")
	}
	return b.String()
}
