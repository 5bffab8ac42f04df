package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vision-dev1/SafeDrop/internal/audit"
	"github.com/vision-dev1/SafeDrop/internal/config"
	"github.com/vision-dev1/SafeDrop/internal/metadata"
	"github.com/vision-dev1/SafeDrop/internal/scanner"
	"github.com/vision-dev1/SafeDrop/internal/storage"
	"github.com/vision-dev1/SafeDrop/internal/tui"
	"github.com/vision-dev1/SafeDrop/internal/vault"
)

// Переменные для версии и даты сборки, устанавливаются через ldflags.
var (
	version = "dev" // Значение по умолчанию, если не установлено при сборке
	//nolint:gochecknoglobals // Устанавливается через ldflags при сборке
	buildDate = "unknown" // Значение по умолчанию
	//nolint:gochecknoglobals // Устанавливается через ldflags при сборке
	commitHash = "N/A" // Значение по умолчанию
)

// setupLogging настраивает логирование в файл с ротацией.
// В терминал ядро не пишет: терминал принадлежит TUI.
func setupLogging(cfg *config.Config, debug bool) {
	writer := &lumberjack.Logger{
		Filename:   cfg.LogFile(),
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	// NewTextHandler — для читаемости логов.
	logHandler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(logHandler))
	slog.Info("Логгер инициализирован", "path", cfg.LogFile(), "level", level.String())
}

func main() {
	versionFlag := flag.Bool("version", false, "Показать версию и дату сборки")
	baseDirFlag := flag.String("base-dir", "", "Базовый каталог SafeDrop (переопределяет SAFEDROP_BASE_DIR)")
	debugFlag := flag.Bool("debug", false, "Включить отладочное логирование")
	flag.Parse()

	if *versionFlag {
		// Используем стандартный log для вывода в консоль, так как slog настроен на файл
		log.SetOutput(os.Stdout)
		log.SetFlags(0)
		log.Println("SafeDrop")
		log.Printf("Version: %s", version)
		log.Printf("Build Date: %s", buildDate)
		log.Printf("Commit Hash: %s", commitHash)
		os.Exit(0)
	}

	// .env необязателен: отсутствие файла не ошибка.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}
	if *baseDirFlag != "" {
		cfg.BaseDir = *baseDirFlag
	}

	if err := os.MkdirAll(cfg.BaseDir, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "Не удалось создать базовый каталог %s: %v\n", cfg.BaseDir, err)
		os.Exit(1)
	}

	setupLogging(cfg, *debugFlag)
	slog.Info("Запуск SafeDrop",
		"base_dir", cfg.BaseDir,
		"max_file_size_mb", cfg.MaxFileSizeMB,
		"entropy_threshold", cfg.EntropyThreshold,
		"default_expiry_days", cfg.DefaultExpiryDays,
	)

	blobs, err := storage.New(cfg.StorageDir())
	if err != nil {
		slog.Error("Не удалось инициализировать хранилище", "error", err)
		fmt.Fprintf(os.Stderr, "Ошибка хранилища: %v\n", err)
		os.Exit(1)
	}

	// Хранилище держится плоским: вложенные каталоги могли остаться
	// от старых версий.
	if _, err := blobs.Flatten(); err != nil {
		slog.Warn("Не удалось выровнять хранилище", "error", err)
	}

	store := metadata.NewStore(cfg.MetadataFile(), cfg.LockTimeout)
	sc := scanner.New(cfg.EntropyThreshold)
	auditLog := audit.NewLog(cfg.AuditFile())

	svc := vault.New(cfg, sc, store, blobs, auditLog)

	tui.Start(svc, cfg)
	slog.Info("SafeDrop завершил работу")
}
