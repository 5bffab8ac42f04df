package storage_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vision-dev1/SafeDrop/internal/storage"
)

const testID = "ABCD-WXYZ-2345"

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(filepath.Join(t.TempDir(), "files"))
	require.NoError(t, err, "Хранилище должно создаваться")
	return s
}

func TestNew(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Права доступа Unix недоступны на Windows")
	}

	root := filepath.Join(t.TempDir(), "files")
	s, err := storage.New(root)
	require.NoError(t, err)

	info, err := os.Stat(s.Root())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm(),
		"Каталог хранилища должен быть доступен только владельцу")
}

func TestPutGetRemove(t *testing.T) {
	s := newTestStorage(t)
	payload := []byte("зашифрованное содержимое")

	require.NoError(t, s.Put(testID, payload), "Запись должна проходить")

	t.Run("Чтение", func(t *testing.T) {
		got, err := s.Get(testID)
		require.NoError(t, err)
		assert.Equal(t, payload, got, "Содержимое должно совпадать")
	})

	t.Run("Размер", func(t *testing.T) {
		size, err := s.Size(testID)
		require.NoError(t, err)
		assert.Equal(t, int64(len(payload)), size)
	})

	t.Run("Права_на_файл", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("Права доступа Unix недоступны на Windows")
		}
		path, err := s.Path(testID)
		require.NoError(t, err)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("Удаление", func(t *testing.T) {
		require.NoError(t, s.Remove(testID))
		_, err := s.Get(testID)
		assert.ErrorIs(t, err, storage.ErrNotFound, "После удаления файла быть не должно")
	})

	t.Run("Повторное_удаление_идемпотентно", func(t *testing.T) {
		assert.NoError(t, s.Remove(testID), "Удаление отсутствующего файла не ошибка")
	})
}

func TestGetMissing(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.Get("ZZZZ-ZZZZ-ZZZZ")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.Size("ZZZZ-ZZZZ-ZZZZ")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPathRejectsInvalidIDs(t *testing.T) {
	s := newTestStorage(t)

	bad := []string{
		"",
		"..",
		"../../etc/passwd",
		"ABCD-WXYZ-23OI",  // запрещенные символы O и I
		"abcd/wxyz/2345",
		"ABCD-WXYZ",
		testID + "/../../x",
	}
	for _, id := range bad {
		_, err := s.Path(id)
		require.Error(t, err, "Идентификатор %q должен отклоняться", id)

		var traversalErr *storage.TraversalError
		assert.ErrorAs(t, err, &traversalErr,
			"Ожидается TraversalError для %q", id)
	}
}

func TestFlatten(t *testing.T) {
	s := newTestStorage(t)

	// Имитируем старую структуру с вложенными каталогами.
	nested := filepath.Join(s.Root(), "old", "deeper")
	require.NoError(t, os.MkdirAll(nested, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "AAAA.sdf"), []byte("а"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "old", "BBBB.sdf"), []byte("б"), 0o600))

	// Файл в корне с тем же именем: перенос должен получить суффикс.
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "AAAA.sdf"), []byte("корень"), 0o600))

	relocated, err := s.Flatten()
	require.NoError(t, err)
	assert.Equal(t, 2, relocated, "Должны быть перенесены оба вложенных файла")

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		assert.False(t, entry.IsDir(), "Вложенных каталогов остаться не должно: %s", entry.Name())
		names = append(names, entry.Name())
	}
	assert.ElementsMatch(t, []string{"AAAA.sdf", "AAAA_1.sdf", "BBBB.sdf"}, names)

	// Существующий файл в корне не тронут.
	data, err := os.ReadFile(filepath.Join(s.Root(), "AAAA.sdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("корень"), data)
}

func TestFlattenEmptyStorage(t *testing.T) {
	s := newTestStorage(t)

	relocated, err := s.Flatten()
	require.NoError(t, err)
	assert.Zero(t, relocated, "В пустом хранилище переносить нечего")
}
