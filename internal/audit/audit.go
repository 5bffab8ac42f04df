// Package audit ведет журнал операций над файлами.
//
// Журнал только дописывается (append-only): одна JSON-строка на событие.
// Ядро никогда не читает его обратно. Ключи шифрования в журнал не
// попадают ни в каком виде.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action — тип операции в журнале.
type Action string

const (
	ActionUpload   Action = "upload"
	ActionDownload Action = "download"
	ActionDelete   Action = "delete"
	ActionCleanup  Action = "cleanup"
)

// Outcome — исход операции.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeDenied Outcome = "denied"
	OutcomeError  Outcome = "error"
)

// Entry — одна запись журнала. Полей достаточно, чтобы восстановить
// "кто/когда/что произошло" по каждому идентификатору.
type Entry struct {
	EntryID string    `json:"entry_id"` // Уникальный ID записи журнала
	FileID  string    `json:"file_id"`  // Идентификатор файла (может быть пустым до выдачи ID)
	Action  Action    `json:"action"`
	Outcome Outcome   `json:"outcome"`
	Detail  string    `json:"detail,omitempty"`
	Time    time.Time `json:"time"`
}

// Log — журнал аудита поверх одного файла.
type Log struct {
	path string
	mu   sync.Mutex
}

// NewLog создает журнал поверх указанного файла. Файл создается при
// первой записи.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Append дописывает событие в журнал.
func (l *Log) Append(fileID string, action Action, outcome Outcome, detail string) error {
	entry := Entry{
		EntryID: uuid.NewString(),
		FileID:  fileID,
		Action:  action,
		Outcome: outcome,
		Detail:  detail,
		Time:    time.Now().UTC(),
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("ошибка сериализации записи аудита: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("ошибка открытия журнала аудита: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("ошибка записи в журнал аудита: %w", err)
	}
	return nil
}
