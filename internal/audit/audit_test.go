package audit_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vision-dev1/SafeDrop/internal/audit"
)

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	log := audit.NewLog(path)

	require.NoError(t, log.Append("ABCD-WXYZ-2345", audit.ActionUpload, audit.OutcomeOK, ""))
	require.NoError(t, log.Append("ABCD-WXYZ-2345", audit.ActionDownload, audit.OutcomeDenied,
		"файл просрочен"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 2, "Каждое событие — одна строка журнала")

	var first, second audit.Entry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first),
		"Каждая строка должна быть корректным JSON")
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, audit.ActionUpload, first.Action)
	assert.Equal(t, audit.OutcomeOK, first.Outcome)
	assert.Equal(t, "ABCD-WXYZ-2345", first.FileID)
	assert.False(t, first.Time.IsZero(), "Время события должно заполняться")
	assert.WithinDuration(t, time.Now().UTC(), first.Time, time.Minute)

	assert.Equal(t, audit.ActionDownload, second.Action)
	assert.Equal(t, audit.OutcomeDenied, second.Outcome)
	assert.Equal(t, "файл просрочен", second.Detail)

	_, err = uuid.Parse(first.EntryID)
	assert.NoError(t, err, "Идентификатор записи журнала должен быть UUID")
	assert.NotEqual(t, first.EntryID, second.EntryID,
		"Идентификаторы записей журнала должны быть уникальны")
}

func TestConcurrentAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	log := audit.NewLog(path)

	const events = 20
	var wg sync.WaitGroup
	wg.Add(events)
	for i := 0; i < events; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, log.Append("ABCD-WXYZ-2345", audit.ActionDownload, audit.OutcomeOK, ""))
		}()
	}
	wg.Wait()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, events, "Конкурентные записи не должны теряться или рваться")
	for _, line := range lines {
		var entry audit.Entry
		assert.NoError(t, json.Unmarshal([]byte(line), &entry),
			"Строки не должны перемешиваться между собой")
	}
}
