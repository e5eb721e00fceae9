package subtitle

import (
	"strings"
)

// Serialize renders doc as canonical SubRip text, the inverse of Parse.
// Blank lines inside a caption are dropped so the block stays intact.
func Serialize(doc Document) string {
	blocks := make([]string, 0, len(doc))
	for _, entry := range doc {
		var sb strings.Builder
		sb.WriteString(strings.TrimSpace(entry.Index))
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(entry.StartTime))
		sb.WriteString(timeArrow)
		sb.WriteString(strings.TrimSpace(entry.EndTime))
		sb.WriteString("\n")
		sb.WriteString(captionText(entry.Text))
		sb.WriteString("\n")
		blocks = append(blocks, sb.String())
	}
	return strings.Join(blocks, "\n")
}

func captionText(text string) string {
	var lines []string
	for _, line := range lineBreakRegex.Split(text, -1) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
