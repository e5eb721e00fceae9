package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// writes the document to an SRT file in canonical form
func (w *SRTWriter) Write(doc Document, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(Serialize(doc)), 0644)
}

// writes the document to a VTT file
func (w *VTTWriter) Write(doc Document, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(RenderVTT(doc)), 0644)
}

// RenderVTT converts doc to WebVTT text. Index lines become cue identifiers.
func RenderVTT(doc Document) string {
	var sb strings.Builder

	// VTT header
	sb.WriteString("WEBVTT\n\n")

	for _, entry := range doc {
		if index := strings.TrimSpace(entry.Index); index != "" {
			sb.WriteString(index)
			sb.WriteString("\n")
		}

		// timestamps: 00:00:00.000 --> 00:00:00.000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatVTTTime(entry.StartTime),
			formatVTTTime(entry.EndTime)))

		sb.WriteString(captionText(entry.Text))
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// normalizes through the codec when possible so out of range components
// still produce a playable cue
func formatVTTTime(ts string) string {
	ms, err := ParseTimestamp(strings.TrimSpace(ts))
	if err != nil {
		return strings.Replace(strings.TrimSpace(ts), ",", ".", 1)
	}
	return strings.Replace(FormatTimestamp(ms), ",", ".", 1)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// file extension for a format
func GetExtensionForFormat(format Format) string {
	switch format {
	case FormatVTT:
		return ".vtt"
	default:
		return ".srt"
	}
}
