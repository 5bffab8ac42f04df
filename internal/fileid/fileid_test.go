package fileid_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vision-dev1/SafeDrop/internal/fileid"
)

// Формат идентификатора: три группы по четыре символа, разделенные дефисами.
var idPattern = regexp.MustCompile(`^[A-Z2-9]{4}-[A-Z2-9]{4}-[A-Z2-9]{4}$`)

func TestGenerate(t *testing.T) {
	t.Run("Формат_соответствует_шаблону", func(t *testing.T) {
		id, err := fileid.Generate()
		require.NoError(t, err, "Генерация не должна возвращать ошибку")
		assert.Regexp(t, idPattern, id, "Идентификатор должен иметь формат XXXX-XXXX-XXXX")
	})

	t.Run("Нет_визуально_похожих_символов", func(t *testing.T) {
		// Символы O, I, 0 и 1 исключены из алфавита.
		for i := 0; i < 200; i++ {
			id, err := fileid.Generate()
			require.NoError(t, err)
			assert.NotContains(t, id, "O", "Идентификатор не должен содержать букву O")
			assert.NotContains(t, id, "I", "Идентификатор не должен содержать букву I")
			assert.NotContains(t, id, "0", "Идентификатор не должен содержать цифру 0")
			assert.NotContains(t, id, "1", "Идентификатор не должен содержать цифру 1")
		}
	})

	t.Run("Идентификаторы_не_повторяются", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 500; i++ {
			id, err := fileid.Generate()
			require.NoError(t, err)
			_, dup := seen[id]
			require.False(t, dup, "Идентификатор %s сгенерирован повторно", id)
			seen[id] = struct{}{}
		}
	})
}

func TestStripDashes(t *testing.T) {
	assert.Equal(t, "ABCDWXYZ2345", fileid.StripDashes("ABCD-WXYZ-2345"))
	assert.Equal(t, "ABCDWXYZ2345", fileid.StripDashes("abcd-wxyz-2345"),
		"Регистр должен подниматься до верхнего")
	assert.Equal(t, "ABCD", fileid.StripDashes("ABCD"))
}

func TestNormalize(t *testing.T) {
	t.Run("Расставляет_дефисы", func(t *testing.T) {
		assert.Equal(t, "ABCD-WXYZ-2345", fileid.Normalize("ABCDWXYZ2345"))
		assert.Equal(t, "ABCD-WXYZ-2345", fileid.Normalize("abcdwxyz2345"))
		assert.Equal(t, "ABCD-WXYZ-2345", fileid.Normalize("  abcd wxyz 2345  "))
	})

	t.Run("Сохраняет_уже_канонический_вид", func(t *testing.T) {
		assert.Equal(t, "ABCD-WXYZ-2345", fileid.Normalize("ABCD-WXYZ-2345"))
	})

	t.Run("Не_трогает_строку_неверной_длины", func(t *testing.T) {
		assert.Equal(t, "ABC", fileid.Normalize("abc"))
	})
}

func TestIsValid(t *testing.T) {
	t.Run("Принимает_обе_формы", func(t *testing.T) {
		assert.True(t, fileid.IsValid("ABCD-WXYZ-2345"), "Форма с дефисами должна приниматься")
		assert.True(t, fileid.IsValid("ABCDWXYZ2345"), "Форма без дефисов должна приниматься")
		assert.True(t, fileid.IsValid("abcd-wxyz-2345"), "Нижний регистр должен приниматься")
	})

	t.Run("Отклоняет_неверные_строки", func(t *testing.T) {
		assert.False(t, fileid.IsValid(""), "Пустая строка недопустима")
		assert.False(t, fileid.IsValid("ABCD-WXYZ"), "Слишком короткий идентификатор недопустим")
		assert.False(t, fileid.IsValid("ABCD-WXYZ-23456"), "Слишком длинный идентификатор недопустим")
		assert.False(t, fileid.IsValid("ABCD-WXYZ-234O"), "Буква O вне алфавита")
		assert.False(t, fileid.IsValid("ABCD-WXYZ-2341"), "Цифра 1 вне алфавита")
		assert.False(t, fileid.IsValid("../etc/passwd"), "Путь не является идентификатором")
	})

	t.Run("Сгенерированные_идентификаторы_валидны", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			id, err := fileid.Generate()
			require.NoError(t, err)
			assert.True(t, fileid.IsValid(id), "Сгенерированный %s должен быть валиден", id)
			assert.True(t, fileid.IsValid(fileid.StripDashes(id)),
				"Форма без дефисов для %s должна быть валидна", id)
		}
	})
}

func TestLength(t *testing.T) {
	id, err := fileid.Generate()
	require.NoError(t, err)
	assert.Len(t, fileid.StripDashes(id), fileid.Length,
		"Без дефисов идентификатор должен содержать %d символов", fileid.Length)
	assert.Equal(t, 2, strings.Count(id, "-"), "Идентификатор должен содержать два дефиса")
}
