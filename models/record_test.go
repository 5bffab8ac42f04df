package models_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vision-dev1/SafeDrop/models"
)

func TestExpired(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("Без_срока_не_истекает", func(t *testing.T) {
		rec := models.FileRecord{}
		assert.False(t, rec.Expired(now))
	})

	t.Run("Срок_в_будущем", func(t *testing.T) {
		future := now.Add(time.Hour)
		rec := models.FileRecord{ExpiresAt: &future}
		assert.False(t, rec.Expired(now))
	})

	t.Run("Срок_в_прошлом", func(t *testing.T) {
		past := now.Add(-time.Hour)
		rec := models.FileRecord{ExpiresAt: &past}
		assert.True(t, rec.Expired(now))
	})

	t.Run("Ровно_в_момент_истечения", func(t *testing.T) {
		rec := models.FileRecord{ExpiresAt: &now}
		assert.False(t, rec.Expired(now), "Истечение наступает строго после ExpiresAt")
	})
}

func TestLogValueRedactsKey(t *testing.T) {
	rec := models.FileRecord{
		ID:            "ABCD-WXYZ-2345",
		OriginalName:  "report.pdf",
		EncryptionKey: "SECRETKEYBASE64==",
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("Файл принят", "record", rec)

	out := buf.String()
	assert.Contains(t, out, "ABCD-WXYZ-2345", "Идентификатор в лог попадать должен")
	assert.NotContains(t, out, "SECRETKEYBASE64",
		"Ключ шифрования не должен попадать в лог ни в каком виде")
}

func TestJSONRoundTrip(t *testing.T) {
	expiry := time.Date(2025, 6, 22, 12, 0, 0, 0, time.UTC)
	rec := models.FileRecord{
		ID:            "ABCD-WXYZ-2345",
		OriginalName:  "report.pdf",
		StoredName:    "ABCDWXYZ2345.sdf",
		Size:          2048,
		UploadedAt:    time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		ExpiresAt:     &expiry,
		DownloadCount: 2,
		AutoDelete:    true,
		EncryptionKey: "key==",
		Note:          "квартальный отчет",
	}

	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	// Имена полей фиксированы: файл метаданных читается разными версиями.
	assert.Contains(t, string(raw), `"upload_time"`)
	assert.Contains(t, string(raw), `"expiry_time"`)
	assert.Contains(t, string(raw), `"auto_delete"`)

	var decoded models.FileRecord
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, rec, decoded)
}
