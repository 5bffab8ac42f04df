// Package scanner реализует эвристическую проверку файлов перед приемом.
//
// Выполняются четыре независимые проверки: расширение, магические байты,
// энтропия Шеннона и поиск подозрительных скриптовых шаблонов. Все проверки
// выполняются безусловно, без короткого замыкания: вердикт содержит полный
// список сработавших правил. Это фильтр, а не антивирус: пропуски возможны,
// ложные срабатывания предпочтительнее молчаливого приема.
package scanner

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// minEntropySample — минимальный размер содержимого, при котором
	// энтропия считается показательной. Короткие файлы по энтропии
	// не отклоняются.
	minEntropySample = 512

	// maxPatternScanSize — максимальный размер содержимого для поиска
	// скриптовых шаблонов. Более крупные файлы по шаблонам не проверяются.
	maxPatternScanSize = 10 * 1024 * 1024

	// MaxEntropy — теоретический максимум энтропии Шеннона, бит/байт.
	MaxEntropy = 8.0
)

// Verdict — результат проверки одного файла-кандидата.
// Не сохраняется: создается на каждую попытку загрузки и сразу потребляется.
type Verdict struct {
	Accepted bool     // Файл прошел все проверки
	Reasons  []string // Описания всех сработавших правил
	Entropy  float64  // Вычисленная энтропия содержимого, бит/байт
}

// Scanner проверяет файлы по набору эвристических правил.
// Порог энтропии передается извне, остальные правила фиксированы.
type Scanner struct {
	entropyThreshold float64
}

// New создает сканер с указанным порогом энтропии (бит/байт, диапазон [0, 8]).
func New(entropyThreshold float64) *Scanner {
	return &Scanner{entropyThreshold: entropyThreshold}
}

// Scan выполняет все проверки над содержимым и именем файла.
// Вердикт принят, только если не сработало ни одно правило.
func (s *Scanner) Scan(data []byte, filename string) Verdict {
	v := Verdict{Entropy: ShannonEntropy(data)}

	v.Reasons = append(v.Reasons, s.checkExtension(filename)...)
	v.Reasons = append(v.Reasons, s.checkSignatures(data)...)
	v.Reasons = append(v.Reasons, s.checkEntropy(data, v.Entropy)...)
	v.Reasons = append(v.Reasons, s.checkPatterns(data)...)

	v.Accepted = len(v.Reasons) == 0
	if !v.Accepted {
		slog.Warn("Файл не прошел проверку безопасности",
			"filename", filename,
			"reasons", v.Reasons,
			"entropy", v.Entropy,
		)
	}
	return v
}

// checkExtension сверяет расширение имени файла со списком опасных.
func (s *Scanner) checkExtension(filename string) []string {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := dangerousExtensions[ext]; ok {
		return []string{fmt.Sprintf("опасное расширение файла: %q", ext)}
	}
	return nil
}

// checkSignatures сверяет первые байты содержимого с таблицей сигнатур
// исполняемых форматов, а затем независимо определяет тип содержимого
// библиотекой mimetype. Расширение файла при этом не учитывается.
func (s *Scanner) checkSignatures(data []byte) []string {
	var reasons []string

	for _, sig := range dangerousSignatures {
		end := sig.offset + len(sig.magic)
		if end > len(data) {
			continue
		}
		if bytes.Equal(data[sig.offset:end], sig.magic) {
			reasons = append(reasons, fmt.Sprintf("опасная сигнатура файла: %s", sig.description))
			break
		}
	}

	detected := mimetype.Detect(data)
	for _, mime := range dangerousMIMETypes {
		if detected.Is(mime) {
			reasons = append(reasons, fmt.Sprintf("опасный тип содержимого: %s", detected.String()))
			break
		}
	}

	return reasons
}

// checkEntropy отклоняет содержимое с энтропией выше порога.
// Высокая энтропия — признак упакованного или зашифрованного кода,
// замаскированного под обычный файл.
func (s *Scanner) checkEntropy(data []byte, entropy float64) []string {
	if len(data) < minEntropySample {
		return nil
	}
	if entropy > s.entropyThreshold {
		return []string{fmt.Sprintf(
			"подозрительно высокая энтропия (%.2f/%.1f): файл может быть упакован или зашифрован",
			entropy, MaxEntropy,
		)}
	}
	return nil
}

// checkPatterns ищет в содержимом известные вредоносные приемы:
// download cradles, reverse shell, маркеры обфускации.
func (s *Scanner) checkPatterns(data []byte) []string {
	if len(data) > maxPatternScanSize {
		return nil
	}

	var reasons []string
	upper := bytes.ToUpper(data)
	for _, pattern := range suspiciousPatterns {
		if bytes.Contains(upper, pattern) {
			reasons = append(reasons, fmt.Sprintf("подозрительный скриптовый шаблон: %q", string(pattern)))
		}
	}
	for _, re := range suspiciousRegexps {
		if match := re.Find(data); match != nil {
			reasons = append(reasons, fmt.Sprintf("подозрительный скриптовый шаблон: %q", string(match)))
		}
	}
	return reasons
}

// ShannonEntropy вычисляет энтропию Шеннона содержимого по частотам
// байтовых значений. Результат в диапазоне [0, 8] бит/байт; для пустого
// содержимого возвращается 0.
func ShannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}

	var freq [256]int
	for _, b := range data {
		freq[b]++
	}

	length := float64(len(data))
	entropy := 0.0
	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}
