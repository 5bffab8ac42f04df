// Package metadata реализует долговременное хранилище записей о файлах.
//
// Все записи лежат в одном JSON-файле, ключ — идентификатор без дефисов.
// Каждая изменяющая операция выполняется под эксклюзивной межпроцессной
// блокировкой (flock на соседнем .lock-файле) на весь цикл
// чтение-изменение-запись: два одновременных скачивания одного файла не
// могут увидеть одинаковый счетчик или оба запустить автоудаление.
// Запись на диск атомарна: сначала временный файл, затем os.Rename.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/vision-dev1/SafeDrop/internal/fileid"
	"github.com/vision-dev1/SafeDrop/models"
)

// Интервал между повторными попытками захвата flock.
const lockRetryDelay = 50 * time.Millisecond

var (
	// ErrNotFound возвращается, когда записи с таким идентификатором нет.
	ErrNotFound = errors.New("запись не найдена")

	// ErrDuplicateID возвращается при попытке создать запись с занятым
	// идентификатором.
	ErrDuplicateID = errors.New("идентификатор уже занят")

	// ErrLockTimeout возвращается, если блокировку файла метаданных
	// не удалось получить за отведенное время.
	ErrLockTimeout = errors.New("не удалось получить блокировку файла метаданных")
)

// StoreCorruptError означает, что файл метаданных существует, но не
// разбирается. Такое состояние фатально для любой операции: молчаливо
// принять его за пустое хранилище значило бы скрыть потерю данных.
type StoreCorruptError struct {
	Path string
	Err  error
}

func (e *StoreCorruptError) Error() string {
	return fmt.Sprintf("файл метаданных %q поврежден: %v", e.Path, e.Err)
}

func (e *StoreCorruptError) Unwrap() error { return e.Err }

// Mutator применяется к записи под блокировкой. Возвращаемый флаг remove
// указывает, что запись нужно удалить после применения изменений.
type Mutator func(rec *models.FileRecord) (remove bool, err error)

// Store — хранилище записей о файлах, разделяемое между процессами.
type Store struct {
	path        string
	lock        *flock.Flock
	lockTimeout time.Duration

	// mu сериализует горутины внутри процесса: flock захватывается
	// процессом целиком, и повторный захват из другой горутины
	// прошел бы без ожидания.
	mu sync.Mutex
}

// NewStore создает хранилище поверх указанного JSON-файла.
// Файл блокировки кладется рядом с суффиксом ".lock".
func NewStore(path string, lockTimeout time.Duration) *Store {
	return &Store{
		path:        path,
		lock:        flock.New(path + ".lock"),
		lockTimeout: lockTimeout,
	}
}

// Create добавляет новую запись. Идентификатор должен быть свободен.
func (s *Store) Create(rec models.FileRecord) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	data, err := s.load()
	if err != nil {
		return err
	}

	key := fileid.StripDashes(rec.ID)
	if _, ok := data[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}
	data[key] = rec

	if err := s.persist(data); err != nil {
		return err
	}
	slog.Debug("Запись метаданных создана", "id", rec.ID)
	return nil
}

// Get возвращает запись по идентификатору (в любой форме — с дефисами
// или без). Если записи нет, возвращает ErrNotFound.
func (s *Store) Get(id string) (models.FileRecord, error) {
	if err := s.acquire(); err != nil {
		return models.FileRecord{}, err
	}
	defer s.release()

	data, err := s.load()
	if err != nil {
		return models.FileRecord{}, err
	}

	rec, ok := data[fileid.StripDashes(id)]
	if !ok {
		return models.FileRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

// Exists сообщает, занят ли идентификатор. Используется при генерации
// идентификаторов для проверки коллизий.
func (s *Store) Exists(id string) (bool, error) {
	_, err := s.Get(id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// List возвращает все записи, отсортированные по времени приема
// (новые первыми).
func (s *Store) List() ([]models.FileRecord, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	data, err := s.load()
	if err != nil {
		return nil, err
	}

	records := make([]models.FileRecord, 0, len(data))
	for _, rec := range data {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UploadedAt.After(records[j].UploadedAt)
	})
	return records, nil
}

// ListExpired возвращает идентификаторы всех записей, чей срок хранения
// истек на момент now.
func (s *Store) ListExpired(now time.Time) ([]string, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}

	var expired []string
	for _, rec := range records {
		if rec.Expired(now) {
			expired = append(expired, rec.ID)
		}
	}
	return expired, nil
}

// Update применяет mutator к записи атомарно: чтение, изменение и запись
// выполняются под одной блокировкой. Если mutator вернул remove=true,
// запись удаляется, а cleanup (обычно удаление зашифрованного файла)
// вызывается после сохранения, но до снятия блокировки — так удаление
// записи и файла становится единой операцией относительно других
// обращений к этому идентификатору.
func (s *Store) Update(id string, fn Mutator, cleanup func() error) (models.FileRecord, error) {
	if err := s.acquire(); err != nil {
		return models.FileRecord{}, err
	}
	defer s.release()

	data, err := s.load()
	if err != nil {
		return models.FileRecord{}, err
	}

	key := fileid.StripDashes(id)
	rec, ok := data[key]
	if !ok {
		return models.FileRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	remove, err := fn(&rec)
	if err != nil {
		return rec, err
	}

	if remove {
		delete(data, key)
	} else {
		data[key] = rec
	}

	if err := s.persist(data); err != nil {
		return rec, err
	}

	if remove && cleanup != nil {
		if err := cleanup(); err != nil {
			return rec, fmt.Errorf("запись удалена, но очистка не завершена: %w", err)
		}
	}
	return rec, nil
}

// Delete удаляет запись. cleanup вызывается после сохранения под той же
// блокировкой, как в Update. Если записи нет, возвращает ErrNotFound.
func (s *Store) Delete(id string, cleanup func() error) error {
	_, err := s.Update(id, func(*models.FileRecord) (bool, error) {
		return true, nil
	}, cleanup)
	return err
}

// acquire захватывает блокировку с ограниченным ожиданием.
func (s *Store) acquire() error {
	s.mu.Lock()

	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		s.mu.Unlock()
		return fmt.Errorf("ошибка блокировки файла метаданных: %w", err)
	}
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w (таймаут %s)", ErrLockTimeout, s.lockTimeout)
	}
	return nil
}

func (s *Store) release() {
	if err := s.lock.Unlock(); err != nil {
		slog.Error("Ошибка при снятии блокировки файла метаданных", "error", err)
	}
	s.mu.Unlock()
}

// load читает все записи из файла. Отсутствующий файл — пустое
// хранилище; существующий, но неразбираемый — StoreCorruptError.
func (s *Store) load() (map[string]models.FileRecord, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]models.FileRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла метаданных: %w", err)
	}

	if len(raw) == 0 {
		// Пустой файл не мог появиться при атомарной записи.
		return nil, &StoreCorruptError{Path: s.path, Err: errors.New("файл пуст")}
	}

	var data map[string]models.FileRecord
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &StoreCorruptError{Path: s.path, Err: err}
	}
	return data, nil
}

// persist атомарно записывает все записи: содержимое пишется во временный
// файл в том же каталоге и подменяет основной через os.Rename. Сбой на
// середине записи не оставляет файл усеченным.
func (s *Store) persist(data map[string]models.FileRecord) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации метаданных: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("ошибка создания каталога метаданных: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".metadata-*.tmp")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ошибка записи временного файла: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ошибка установки прав на файл метаданных: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ошибка закрытия временного файла: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ошибка подмены файла метаданных: %w", err)
	}
	return nil
}
