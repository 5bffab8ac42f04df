// Package storage управляет зашифрованными файлами на диске.
//
// Каждому идентификатору соответствует ровно один файл с фиксированным,
// детерминированным именем внутри корневого каталога хранилища. Никакие
// пользовательские сегменты пути не используются, но перед любым
// обращением к файловой системе путь дополнительно проверяется на
// лексическое вхождение в корень — защита в глубину на случай, если
// идентификатор пришел не от генератора.
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vision-dev1/SafeDrop/internal/fileid"
)

// blobExt — расширение зашифрованных файлов в хранилище (SafeDrop File).
const blobExt = ".sdf"

// ErrNotFound возвращается, когда зашифрованного файла для
// идентификатора нет в хранилище.
var ErrNotFound = errors.New("зашифрованный файл не найден")

// TraversalError означает попытку выйти за пределы корневого каталога
// хранилища либо идентификатор недопустимого формата.
type TraversalError struct {
	ID string
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("недопустимый путь хранения для идентификатора %q", e.ID)
}

// Storage — файловое хранилище зашифрованного содержимого.
type Storage struct {
	root string
}

// New создает хранилище в указанном корневом каталоге. Каталог создается
// с правами 0700: доступ только у владельца.
func New(root string) (*Storage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("ошибка определения корня хранилища: %w", err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога хранилища: %w", err)
	}
	// MkdirAll не меняет права уже существующего каталога.
	if err := os.Chmod(abs, 0o700); err != nil {
		return nil, fmt.Errorf("ошибка установки прав на каталог хранилища: %w", err)
	}
	return &Storage{root: abs}, nil
}

// Root возвращает абсолютный путь корневого каталога хранилища.
func (s *Storage) Root() string { return s.root }

// Path вычисляет путь файла для идентификатора и проверяет, что он
// лексически не выходит за пределы корня хранилища.
func (s *Storage) Path(id string) (string, error) {
	if !fileid.IsValid(id) {
		return "", &TraversalError{ID: id}
	}

	name := fileid.StripDashes(id) + blobExt
	candidate := filepath.Join(s.root, name)

	// Лексическая проверка вхождения: после Join путь обязан остаться
	// строго внутри корня.
	if candidate != filepath.Clean(candidate) ||
		!strings.HasPrefix(candidate, s.root+string(filepath.Separator)) {
		return "", &TraversalError{ID: id}
	}
	return candidate, nil
}

// Put записывает зашифрованное содержимое для идентификатора.
func (s *Storage) Put(id string, ciphertext []byte) error {
	path, err := s.Path(id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, ciphertext, 0o600); err != nil {
		return fmt.Errorf("ошибка записи зашифрованного файла: %w", err)
	}
	slog.Debug("Зашифрованный файл записан", "id", id, "size", len(ciphertext))
	return nil
}

// Get читает зашифрованное содержимое идентификатора.
func (s *Storage) Get(id string) ([]byte, error) {
	path, err := s.Path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения зашифрованного файла: %w", err)
	}
	return data, nil
}

// Remove удаляет зашифрованный файл идентификатора. Отсутствие файла
// не считается ошибкой: удаление идемпотентно.
func (s *Storage) Remove(id string) error {
	path, err := s.Path(id)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка удаления зашифрованного файла: %w", err)
	}
	if err == nil {
		slog.Debug("Зашифрованный файл удален", "id", id)
	}
	return nil
}

// Size возвращает размер зашифрованного файла в байтах.
func (s *Storage) Size(id string) (int64, error) {
	path, err := s.Path(id)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения атрибутов файла: %w", err)
	}
	return info.Size(), nil
}

// Flatten переносит все файлы из вложенных каталогов непосредственно в
// корень хранилища и удаляет опустевшие каталоги. Вложенность могла
// остаться от старых версий или ручного вмешательства; хранилище всегда
// должно быть плоским. При совпадении имен добавляется числовой суффикс.
// Возвращает количество перемещенных файлов.
func (s *Storage) Flatten() (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения каталога хранилища: %w", err)
	}

	relocated := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		subdir := filepath.Join(s.root, entry.Name())

		walkErr := filepath.WalkDir(subdir, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}

			dest := uniqueDest(s.root, d.Name())
			if err := os.Rename(path, dest); err != nil {
				return fmt.Errorf("ошибка переноса %q: %w", path, err)
			}
			slog.Info("Файл перенесен в корень хранилища",
				"from", path, "to", filepath.Base(dest))
			relocated++
			return nil
		})
		if walkErr != nil {
			return relocated, walkErr
		}

		if err := os.RemoveAll(subdir); err != nil {
			slog.Warn("Не удалось удалить вложенный каталог", "dir", subdir, "error", err)
		} else {
			slog.Info("Вложенный каталог удален", "dir", subdir)
		}
	}

	if relocated > 0 {
		slog.Info("Хранилище выровнено", "relocated", relocated)
	}
	return relocated, nil
}

// uniqueDest подбирает свободное имя в каталоге dir: при занятом имени
// добавляет суффиксы _1, _2 и так далее.
func uniqueDest(dir, name string) string {
	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
		return dest
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		dest = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
			return dest
		}
	}
}
