// Package filecrypt шифрует и расшифровывает содержимое файлов.
//
// Используется аутентифицированное шифрование XChaCha20-Poly1305 с новым
// ключом на каждый файл: компрометация ключа одного файла не раскрывает
// остальные. Ключ хранится только в записи метаданных этого файла;
// потеря записи делает содержимое невосстановимым (депонирования нет).
package filecrypt

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize — размер ключа в байтах.
const KeySize = chacha20poly1305.KeySize

// ErrIntegrity возвращается при расшифровке, если содержимое было изменено
// или ключ не подходит. Различить эти случаи невозможно по построению AEAD.
var ErrIntegrity = errors.New("содержимое повреждено или ключ неверен")

// GenerateKey возвращает новый случайный ключ шифрования.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("ошибка генерации ключа: %w", err)
	}
	return key, nil
}

// EncodeKey кодирует ключ в base64 для хранения в записи метаданных.
func EncodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// DecodeKey декодирует ключ из base64-представления записи метаданных.
func DecodeKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования ключа: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("неверная длина ключа: %d байт вместо %d", len(key), KeySize)
	}
	return key, nil
}

// Encrypt шифрует содержимое указанным ключом. Случайный nonce
// записывается в начало результата.
func Encrypt(plaintext, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации шифра: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt расшифровывает содержимое, созданное Encrypt, и проверяет
// его целостность. При любом несоответствии возвращает ErrIntegrity.
func Decrypt(ciphertext, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации шифра: %w", err)
	}

	if len(ciphertext) < aead.NonceSize()+aead.Overhead() {
		return nil, fmt.Errorf("%w: содержимое короче минимально возможного", ErrIntegrity)
	}

	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w", ErrIntegrity)
	}
	return plaintext, nil
}
