package models

import (
	"log/slog"
	"time"
)

// FileRecord представляет метаданные одного принятого файла.
// Тэги `json` используются для (де)сериализации в файле метаданных.
type FileRecord struct {
	ID            string     `json:"id"`                    // Уникальный ID файла (формат XXXX-XXXX-XXXX)
	OriginalName  string     `json:"original_name"`         // Исходное имя файла (без каталогов)
	StoredName    string     `json:"stored_name"`           // Имя зашифрованного файла в хранилище
	Size          int64      `json:"size"`                  // Размер исходного файла в байтах
	UploadedAt    time.Time  `json:"upload_time"`           // Время приема файла (UTC)
	ExpiresAt     *time.Time `json:"expiry_time,omitempty"` // Время истечения срока; nil — бессрочно
	DownloadCount int        `json:"download_count"`        // Количество скачиваний
	AutoDelete    bool       `json:"auto_delete"`           // Удалять после первого скачивания?
	EncryptionKey string     `json:"encryption_key"`        // Ключ шифрования (base64), принадлежит только этой записи
	Note          string     `json:"note,omitempty"`        // Произвольная заметка загрузившего
}

// Expired сообщает, истек ли срок хранения записи на момент now.
// Запись без ExpiresAt не истекает никогда.
func (r *FileRecord) Expired(now time.Time) bool {
	if r.ExpiresAt == nil {
		return false
	}
	return now.After(*r.ExpiresAt)
}

// LogValue реализует slog.LogValuer: ключ шифрования не должен
// попадать ни в логи, ни в журнал аудита ни при каких условиях.
func (r FileRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", r.ID),
		slog.String("original_name", r.OriginalName),
		slog.Int64("size", r.Size),
		slog.Int("download_count", r.DownloadCount),
		slog.Bool("auto_delete", r.AutoDelete),
	)
}
