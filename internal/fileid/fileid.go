// Package fileid генерирует и проверяет публичные идентификаторы файлов.
// Идентификатор — единственная внешняя "ручка" для доступа к файлу,
// поэтому он должен быть неугадываемым и удобным для передачи человеком.
package fileid

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Length — количество значащих символов в идентификаторе (без дефисов).
const Length = 12

// groupSize — размер группы символов между дефисами (XXXX-XXXX-XXXX).
const groupSize = Length / 3

// Алфавит: заглавные латинские буквы и цифры без визуально похожих
// символов O/0 и I/1. Ровно 32 символа, поэтому выборка байта по
// модулю не дает смещения (256 делится на 32 нацело).
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Generate возвращает новый идентификатор в формате XXXX-XXXX-XXXX,
// используя криптографически стойкий источник случайности.
func Generate() (string, error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("ошибка чтения случайных байт: %w", err)
	}

	chars := make([]byte, 0, Length+2)
	for i, b := range buf {
		if i > 0 && i%groupSize == 0 {
			chars = append(chars, '-')
		}
		chars = append(chars, alphabet[int(b)%len(alphabet)])
	}
	return string(chars), nil
}

// StripDashes убирает дефисы и приводит идентификатор к верхнему регистру.
// Используется как ключ во внутренних структурах (метаданные, имена файлов).
func StripDashes(id string) string {
	return strings.ToUpper(strings.ReplaceAll(id, "-", ""))
}

// Normalize приводит пользовательский ввод к каноническому виду:
// убирает пробелы, поднимает регистр и расставляет дефисы.
// Если длина не совпадает с ожидаемой, возвращает ввод без перестановки
// дефисов — валидность проверяется отдельно через IsValid.
func Normalize(id string) string {
	raw := strings.ToUpper(strings.TrimSpace(id))
	raw = strings.ReplaceAll(raw, "-", "")
	raw = strings.ReplaceAll(raw, " ", "")
	if len(raw) != Length {
		return strings.ToUpper(strings.TrimSpace(id))
	}
	return raw[:groupSize] + "-" + raw[groupSize:2*groupSize] + "-" + raw[2*groupSize:]
}

// IsValid проверяет, что строка выглядит как идентификатор SafeDrop.
// Принимаются обе формы: с дефисами (XXXX-XXXX-XXXX) и без (XXXXXXXXXXXX).
// Проверяется только формат, не подлинность.
func IsValid(id string) bool {
	raw := StripDashes(strings.TrimSpace(id))
	if len(raw) != Length {
		return false
	}
	for i := 0; i < len(raw); i++ {
		if !strings.ContainsRune(alphabet, rune(raw[i])) {
			return false
		}
	}
	return true
}
