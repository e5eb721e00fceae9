package subtitle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var errInvalidEncoding = errors.New("content is not readable text")

// Result is the outcome of checking one subtitle source.
type Result struct {
	Valid       bool     `json:"valid"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// ReadText reads r as UTF-8, honoring a UTF-8 or UTF-16 byte order mark.
// Input without a BOM that is not valid UTF-8 is decoded as Windows-1252,
// the usual encoding of legacy .srt files.
func ReadText(r io.Reader) (string, error) {
	decoder := unicode.BOMOverride(transform.Nop)
	data, err := io.ReadAll(transform.NewReader(r, decoder))
	if err != nil {
		return "", err
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidEncoding, err)
	}
	return string(decoded), nil
}

// Load reads and parses r. A read or decode failure is reported as a single
// UnreadableInput diagnostic with an empty document.
func Load(r io.Reader, rules Rules) (Document, Report) {
	text, err := ReadText(r)
	if err != nil {
		return Document{}, Unreadable(err)
	}
	doc := Parse(text)
	return doc, Validate(doc, rules)
}

func LoadFile(path string, rules Rules) (Document, Report) {
	file, err := os.Open(path)
	if err != nil {
		return Document{}, Unreadable(err)
	}
	defer func() {
		_ = file.Close()
	}()
	return Load(file, rules)
}

// Check is the upload validation entry point.
func Check(r io.Reader, rules Rules) Result {
	_, report := Load(r, rules)
	return report.Result()
}

func CheckFile(path string, rules Rules) Result {
	_, report := LoadFile(path, rules)
	return report.Result()
}

// Result converts a report to the upload validation shape.
func (r Report) Result() Result {
	msgs := r.Messages()
	if len(msgs) == 0 {
		return Result{Valid: true}
	}
	return Result{Valid: false, Diagnostics: msgs}
}

// IsSubtitleFile reports whether path has a SubRip extension.
func IsSubtitleFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".srt"
}

// GetFormatFromExtension picks the output format for path.
func GetFormatFromExtension(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".srt", "":
		return FormatSRT, nil
	case ".vtt":
		return FormatVTT, nil
	default:
		return "", fmt.Errorf("unsupported subtitle format: %s", ext)
	}
}
