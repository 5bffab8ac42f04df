// Package vault содержит конвейеры приема и выдачи файлов — единственные
// точки входа в ядро для внешнего слоя (меню, CLI).
//
// Прием: лимит размера → проверка безопасности → шифрование → выдача
// идентификатора → запись зашифрованного файла → запись метаданных.
// Выдача: поиск записи → проверка срока → расшифровка → учет скачивания
// и автоудаление под одной блокировкой → восстановление файла.
package vault

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vision-dev1/SafeDrop/internal/audit"
	"github.com/vision-dev1/SafeDrop/internal/config"
	"github.com/vision-dev1/SafeDrop/internal/filecrypt"
	"github.com/vision-dev1/SafeDrop/internal/fileid"
	"github.com/vision-dev1/SafeDrop/internal/metadata"
	"github.com/vision-dev1/SafeDrop/internal/scanner"
	"github.com/vision-dev1/SafeDrop/internal/storage"
	"github.com/vision-dev1/SafeDrop/models"
)

// maxIDAttempts — предел перегенераций идентификатора при коллизии.
// Пространство идентификаторов настолько велико, что повтор — страховка,
// а не рабочий путь.
const maxIDAttempts = 5

// fallbackName используется, если исходное имя файла после отсечения
// каталогов оказалось пустым или небезопасным.
const fallbackName = "safedrop_file"

// UploadOptions — параметры приема файла, собранные внешним слоем.
type UploadOptions struct {
	ExpiryDays int    // Срок хранения в днях; 0 — бессрочно
	AutoDelete bool   // Удалить после первого скачивания
	Note       string // Произвольная заметка
}

// UploadResult — успешный итог приема файла.
type UploadResult struct {
	ID           string
	OriginalName string
	Size         int64
	ExpiresAt    *time.Time
	AutoDelete   bool
}

// DownloadResult — успешный итог выдачи файла.
type DownloadResult struct {
	Path          string // Куда восстановлен файл
	OriginalName  string
	Size          int64
	DownloadCount int
	AutoDeleted   bool
}

// Service связывает сканер, шифрование, хранилища и журнал аудита
// в конвейеры приема и выдачи.
type Service struct {
	cfg     *config.Config
	scanner *scanner.Scanner
	store   *metadata.Store
	blobs   *storage.Storage
	audit   *audit.Log

	// now выделено в поле для подмены времени в тестах.
	now func() time.Time
}

// Option настраивает Service при создании.
type Option func(*Service)

// WithNow подменяет источник времени. Используется в тестах истечения срока.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New создает сервис поверх готовых компонентов.
func New(
	cfg *config.Config,
	sc *scanner.Scanner,
	store *metadata.Store,
	blobs *storage.Storage,
	auditLog *audit.Log,
	opts ...Option,
) *Service {
	s := &Service{
		cfg:     cfg,
		scanner: sc,
		store:   store,
		blobs:   blobs,
		audit:   auditLog,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload принимает файл по локальному пути: проверяет размер и
// безопасность, шифрует, выдает идентификатор и сохраняет. Зашифрованный
// файл записывается раньше метаданных: сбой между этими шагами оставляет
// в худшем случае недостижимый файл, но никогда запись без файла.
func (s *Service) Upload(srcPath string, opts UploadOptions) (*UploadResult, error) {
	info, err := os.Stat(srcPath)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать файл: %w", err)
	}

	// Лимит размера проверяется до чтения, сканирования и шифрования.
	if info.Size() == 0 {
		return nil, ErrEmptyFile
	}
	if limit := s.cfg.MaxFileSizeBytes(); info.Size() > limit {
		return nil, &SizeLimitError{Size: info.Size(), Limit: limit}
	}

	if opts.ExpiryDays < 0 || opts.ExpiryDays > s.cfg.MaxExpiryDays {
		return nil, fmt.Errorf("%w: %d дней при максимуме %d",
			ErrExpiryOutOfRange, opts.ExpiryDays, s.cfg.MaxExpiryDays)
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать файл: %w", err)
	}

	originalName := filepath.Base(srcPath)

	verdict := s.scanner.Scan(data, originalName)
	if !verdict.Accepted {
		s.auditAppend("", audit.ActionUpload, audit.OutcomeDenied,
			fmt.Sprintf("файл %q отклонен: %v", originalName, verdict.Reasons))
		return nil, &ScanRejectedError{Reasons: verdict.Reasons, Entropy: verdict.Entropy}
	}

	key, err := filecrypt.GenerateKey()
	if err != nil {
		return nil, &EncryptionError{Err: err}
	}
	ciphertext, err := filecrypt.Encrypt(data, key)
	if err != nil {
		return nil, &EncryptionError{Err: err}
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}

	uploadedAt := s.now()
	var expiresAt *time.Time
	if opts.ExpiryDays > 0 {
		t := uploadedAt.AddDate(0, 0, opts.ExpiryDays)
		expiresAt = &t
	}

	rec := models.FileRecord{
		ID:            id,
		OriginalName:  originalName,
		StoredName:    fileid.StripDashes(id) + ".sdf",
		Size:          int64(len(data)),
		UploadedAt:    uploadedAt,
		ExpiresAt:     expiresAt,
		AutoDelete:    opts.AutoDelete,
		EncryptionKey: filecrypt.EncodeKey(key),
		Note:          opts.Note,
	}

	// Сначала файл, потом запись: обратный порядок мог бы оставить
	// запись, указывающую в пустоту.
	if err := s.blobs.Put(id, ciphertext); err != nil {
		return nil, err
	}
	if err := s.store.Create(rec); err != nil {
		// Запись не создана — подчищаем осиротевший файл.
		if rmErr := s.blobs.Remove(id); rmErr != nil {
			slog.Warn("Не удалось удалить осиротевший файл", "id", id, "error", rmErr)
		}
		return nil, err
	}

	s.auditAppend(id, audit.ActionUpload, audit.OutcomeOK,
		fmt.Sprintf("файл %q принят, %d байт", originalName, rec.Size))
	slog.Info("Файл принят", "record", rec)

	return &UploadResult{
		ID:           id,
		OriginalName: originalName,
		Size:         rec.Size,
		ExpiresAt:    expiresAt,
		AutoDelete:   opts.AutoDelete,
	}, nil
}

// Download выдает файл по идентификатору и восстанавливает его в
// указанный каталог. Учет скачивания и автоудаление выполняются одной
// операцией под блокировкой: при одновременных запросах к файлу с
// автоудалением успешным будет ровно один.
func (s *Service) Download(rawID, destDir string) (*DownloadResult, error) {
	if !fileid.IsValid(rawID) {
		s.auditAppend(rawID, audit.ActionDownload, audit.OutcomeDenied, "недопустимый формат идентификатора")
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, rawID)
	}
	id := fileid.Normalize(rawID)

	rec, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			s.auditAppend(id, audit.ActionDownload, audit.OutcomeDenied, "идентификатор не найден")
		}
		return nil, err
	}

	// Просроченная запись попутно удаляется, наружу выглядит как
	// отсутствующая.
	if rec.Expired(s.now()) {
		if delErr := s.store.Delete(id, func() error { return s.blobs.Remove(id) }); delErr != nil {
			slog.Warn("Не удалось удалить просроченную запись", "id", id, "error", delErr)
		}
		s.auditAppend(id, audit.ActionDownload, audit.OutcomeDenied, "срок хранения истек")
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	key, err := filecrypt.DecodeKey(rec.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("запись повреждена: %w", err)
	}

	ciphertext, err := s.blobs.Get(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.auditAppend(id, audit.ActionDownload, audit.OutcomeError, "зашифрованный файл отсутствует")
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	plaintext, err := filecrypt.Decrypt(ciphertext, key)
	if err != nil {
		s.auditAppend(id, audit.ActionDownload, audit.OutcomeDenied, "ошибка проверки целостности")
		return nil, err
	}

	// Инкремент счетчика и автоудаление — одна операция под блокировкой.
	// Если запись уже удалена конкурентным скачиванием, выдача не
	// состоится: гонка разрешается здесь.
	updated, err := s.store.Update(id, func(r *models.FileRecord) (bool, error) {
		r.DownloadCount++
		return r.AutoDelete, nil
	}, func() error {
		return s.blobs.Remove(id)
	})
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			s.auditAppend(id, audit.ActionDownload, audit.OutcomeDenied, "идентификатор не найден")
		}
		return nil, err
	}

	destPath, err := s.restore(destDir, rec.OriginalName, plaintext)
	if err != nil {
		return nil, err
	}

	s.auditAppend(id, audit.ActionDownload, audit.OutcomeOK,
		fmt.Sprintf("файл %q выдан, скачиваний: %d", rec.OriginalName, updated.DownloadCount))
	slog.Info("Файл выдан",
		"id", id,
		"dest", destPath,
		"download_count", updated.DownloadCount,
		"auto_deleted", rec.AutoDelete,
	)

	return &DownloadResult{
		Path:          destPath,
		OriginalName:  rec.OriginalName,
		Size:          int64(len(plaintext)),
		DownloadCount: updated.DownloadCount,
		AutoDeleted:   rec.AutoDelete,
	}, nil
}

// List возвращает все живые записи, новые первыми.
func (s *Service) List() ([]models.FileRecord, error) {
	return s.store.List()
}

// Delete удаляет запись и зашифрованный файл по явному запросу.
func (s *Service) Delete(rawID string) error {
	if !fileid.IsValid(rawID) {
		return fmt.Errorf("%w: %q", ErrInvalidID, rawID)
	}
	id := fileid.Normalize(rawID)

	if err := s.store.Delete(id, func() error { return s.blobs.Remove(id) }); err != nil {
		return err
	}
	s.auditAppend(id, audit.ActionDelete, audit.OutcomeOK, "удален по запросу")
	slog.Info("Файл удален по запросу", "id", id)
	return nil
}

// CleanupExpired удаляет все просроченные записи вместе с их файлами.
// Возвращает количество удаленных. Ошибка по одной записи не прерывает
// очистку остальных.
func (s *Service) CleanupExpired() (int, error) {
	expired, err := s.store.ListExpired(s.now())
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range expired {
		if err := s.store.Delete(id, func() error { return s.blobs.Remove(id) }); err != nil {
			slog.Warn("Не удалось удалить просроченную запись", "id", id, "error", err)
			continue
		}
		s.auditAppend(id, audit.ActionCleanup, audit.OutcomeOK, "срок хранения истек")
		removed++
	}

	if removed > 0 {
		slog.Info("Очистка просроченных файлов завершена", "removed", removed)
	}
	return removed, nil
}

// newID генерирует идентификатор, свободный среди живых записей.
func (s *Service) newID() (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := fileid.Generate()
		if err != nil {
			return "", err
		}
		taken, err := s.store.Exists(id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
		slog.Warn("Коллизия идентификатора, повторная генерация", "attempt", attempt+1)
	}
	return "", fmt.Errorf("не удалось сгенерировать свободный идентификатор за %d попыток", maxIDAttempts)
}

// restore записывает восстановленное содержимое в каталог назначения.
// Из исходного имени берется только базовая часть: каталожные сегменты
// и попытки обхода пути отбрасываются.
func (s *Service) restore(destDir, originalName string, plaintext []byte) (string, error) {
	dir, err := filepath.Abs(destDir)
	if err != nil {
		return "", fmt.Errorf("недопустимый каталог назначения: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("не удалось создать каталог назначения: %w", err)
	}

	// Отсекаются оба вида разделителей: имя могло прийти из Windows.
	name := originalName[strings.LastIndexByte(originalName, '\\')+1:]
	name = filepath.Base(name)
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		name = fallbackName
	}

	destPath := uniquePath(dir, name)
	if err := os.WriteFile(destPath, plaintext, 0o644); err != nil {
		return "", fmt.Errorf("не удалось записать восстановленный файл: %w", err)
	}
	return destPath, nil
}

// uniquePath подбирает свободное имя файла в каталоге, добавляя при
// необходимости суффиксы _1, _2 и так далее.
func uniquePath(dir, name string) string {
	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
		return dest
	}

	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]
	for i := 1; ; i++ {
		dest = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
			return dest
		}
	}
}

// auditAppend пишет событие в журнал; сбой журнала не прерывает операцию,
// но попадает в лог.
func (s *Service) auditAppend(fileID string, action audit.Action, outcome audit.Outcome, detail string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(fileID, action, outcome, detail); err != nil {
		slog.Warn("Не удалось записать событие аудита", "action", action, "error", err)
	}
}
