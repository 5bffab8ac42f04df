// Package config отвечает за конфигурацию приложения.
// Числовые параметры (лимит размера, порог энтропии, сроки хранения)
// задаются переменными окружения и не зашиты в код.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Имена файлов внутри базового каталога.
const (
	storageDirName   = "storage"
	metadataFileName = "metadata.json"
	auditFileName    = "audit.log"
	logFileName      = "safedrop.log"
)

// Config содержит все настраиваемые параметры ядра.
type Config struct {
	// Базовый каталог приложения. По умолчанию ~/.safedrop.
	BaseDir string `env:"SAFEDROP_BASE_DIR"`

	// Максимальный размер принимаемого файла в мегабайтах.
	MaxFileSizeMB int64 `env:"SAFEDROP_MAX_FILE_SIZE_MB" envDefault:"500"`

	// Порог энтропии Шеннона (бит/байт), выше которого файл отклоняется.
	EntropyThreshold float64 `env:"SAFEDROP_ENTROPY_THRESHOLD" envDefault:"7.5"`

	// Срок хранения по умолчанию, в днях. 0 — бессрочно.
	DefaultExpiryDays int `env:"SAFEDROP_DEFAULT_EXPIRY_DAYS" envDefault:"7"`

	// Максимально допустимый срок хранения, в днях.
	MaxExpiryDays int `env:"SAFEDROP_MAX_EXPIRY_DAYS" envDefault:"365"`

	// Максимальное время ожидания блокировки файла метаданных.
	LockTimeout time.Duration `env:"SAFEDROP_LOCK_TIMEOUT" envDefault:"5s"`

	// Параметры ротации лог-файла.
	LogMaxSizeMB  int `env:"SAFEDROP_LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups int `env:"SAFEDROP_LOG_MAX_BACKUPS" envDefault:"3"`
}

// Load читает конфигурацию из переменных окружения и подставляет значения
// по умолчанию. Базовый каталог, если не задан, вычисляется от домашнего
// каталога пользователя.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора переменных окружения: %w", err)
	}

	if cfg.BaseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("не удалось определить домашний каталог: %w", err)
		}
		cfg.BaseDir = filepath.Join(home, ".safedrop")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность числовых параметров.
func (c *Config) Validate() error {
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("лимит размера файла должен быть положительным, получено %d", c.MaxFileSizeMB)
	}
	if c.EntropyThreshold < 0 || c.EntropyThreshold > 8 {
		return fmt.Errorf("порог энтропии должен быть в диапазоне [0, 8], получено %g", c.EntropyThreshold)
	}
	if c.MaxExpiryDays <= 0 {
		return fmt.Errorf("максимальный срок хранения должен быть положительным, получено %d", c.MaxExpiryDays)
	}
	if c.DefaultExpiryDays < 0 || c.DefaultExpiryDays > c.MaxExpiryDays {
		return fmt.Errorf("срок хранения по умолчанию %d вне диапазона [0, %d]", c.DefaultExpiryDays, c.MaxExpiryDays)
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("время ожидания блокировки должно быть положительным, получено %s", c.LockTimeout)
	}
	return nil
}

// MaxFileSizeBytes возвращает лимит размера файла в байтах.
func (c *Config) MaxFileSizeBytes() int64 {
	return c.MaxFileSizeMB * 1024 * 1024
}

// StorageDir возвращает путь к каталогу зашифрованных файлов.
func (c *Config) StorageDir() string {
	return filepath.Join(c.BaseDir, storageDirName)
}

// MetadataFile возвращает путь к файлу метаданных.
func (c *Config) MetadataFile() string {
	return filepath.Join(c.BaseDir, metadataFileName)
}

// AuditFile возвращает путь к журналу аудита.
func (c *Config) AuditFile() string {
	return filepath.Join(c.BaseDir, auditFileName)
}

// LogFile возвращает путь к лог-файлу приложения.
func (c *Config) LogFile() string {
	return filepath.Join(c.BaseDir, logFileName)
}
