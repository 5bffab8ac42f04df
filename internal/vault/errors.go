package vault

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vision-dev1/SafeDrop/internal/filecrypt"
	"github.com/vision-dev1/SafeDrop/internal/metadata"
)

// Ошибки нижних слоев, являющиеся частью контракта ядра.
// Внешний слой проверяет их через errors.Is, не зная о внутренних пакетах.
var (
	// ErrNotFound — файла с таким идентификатором нет. Покрывает и
	// действительно отсутствующие, и лениво удаленные просроченные
	// записи: различие наружу не выдается, чтобы по ответу нельзя было
	// прощупывать существование идентификаторов.
	ErrNotFound = metadata.ErrNotFound

	// ErrLockTimeout — не удалось получить блокировку хранилища метаданных.
	ErrLockTimeout = metadata.ErrLockTimeout

	// ErrIntegrity — содержимое файла повреждено или ключ не подходит.
	ErrIntegrity = filecrypt.ErrIntegrity

	// ErrInvalidID — строка не похожа на идентификатор SafeDrop.
	ErrInvalidID = errors.New("недопустимый формат идентификатора")

	// ErrEmptyFile — попытка загрузить пустой файл.
	ErrEmptyFile = errors.New("файл пуст")

	// ErrExpiryOutOfRange — срок хранения вне допустимого диапазона.
	ErrExpiryOutOfRange = errors.New("срок хранения вне допустимого диапазона")
)

// SizeLimitError означает превышение лимита размера файла.
// Проверка выполняется до сканирования и шифрования.
type SizeLimitError struct {
	Size  int64
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("файл слишком большой: %d байт при лимите %d", e.Size, e.Limit)
}

// ScanRejectedError означает, что файл не прошел проверку безопасности.
// Содержит все сработавшие правила, а не только первое.
type ScanRejectedError struct {
	Reasons []string
	Entropy float64
}

func (e *ScanRejectedError) Error() string {
	return fmt.Sprintf("файл отклонен проверкой безопасности: %s", strings.Join(e.Reasons, "; "))
}

// EncryptionError означает сбой при шифровании содержимого.
type EncryptionError struct {
	Err error
}

func (e *EncryptionError) Error() string {
	return fmt.Sprintf("ошибка шифрования: %v", e.Err)
}

func (e *EncryptionError) Unwrap() error { return e.Err }
