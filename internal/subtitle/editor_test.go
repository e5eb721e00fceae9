package subtitle

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const editorSample = `1
00:00:01,000 --> 00:00:02,000
Hello world

2
00:00:05,000 --> 00:00:03,000
Late text
`

func TestEditorInitialReport(t *testing.T) {
	editor := NewEditor(editorSample, DefaultRules())

	if editor.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", editor.Len())
	}
	report := editor.Report()
	if len(report.Entries) != editor.Len() {
		t.Fatalf("expected one diagnostic slot per entry, got %d", len(report.Entries))
	}
	if diff := cmp.Diff([]Kind{KindInvalidTimeOrder}, kinds(report.Entries[1])); diff != "" {
		t.Errorf("entry 1 kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestEditorSetFixesEntry(t *testing.T) {
	editor := NewEditor(editorSample, DefaultRules())

	report, err := editor.Set(1, FieldTime, "00:00:03,000 --> 00:00:05,000")
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !report.Valid() {
		t.Errorf("expected valid report after fix, got %v", report.Messages())
	}

	want := "1\n00:00:01,000 --> 00:00:02,000\nHello world\n\n" +
		"2\n00:00:03,000 --> 00:00:05,000\nLate text\n"
	if got := editor.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestEditorSetFields(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		value string
		want  []Kind
	}{
		{"clear text", FieldText, "  ", []Kind{KindEmptyText}},
		{"bad index", FieldIndex, "one", []Kind{KindInvalidIndex}},
		{"time without arrow", FieldTime, "garbage", []Kind{KindMissingTimestamp}},
		{"bad start", FieldStart, "00:00:1,000", []Kind{KindInvalidTimeFormat}},
		{"end before start", FieldEnd, "00:00:00,500", []Kind{KindInvalidTimeOrder}},
		{"new text", FieldText, "Bonjour", []Kind{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			editor := NewEditor(editorSample, DefaultRules())
			report, err := editor.Set(0, tt.field, tt.value)
			if err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, kinds(report.Entries[0])); diff != "" {
				t.Errorf("entry 0 kinds mismatch (-want +got):\n%s", diff)
			}
			// the other entry is untouched
			if diff := cmp.Diff([]Kind{KindInvalidTimeOrder}, kinds(report.Entries[1])); diff != "" {
				t.Errorf("entry 1 kinds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEditorSetOutOfRange(t *testing.T) {
	editor := NewEditor(editorSample, DefaultRules())
	before := editor.Text()

	for _, pos := range []int{-1, 2, 100} {
		if _, err := editor.Set(pos, FieldText, "x"); err == nil {
			t.Errorf("Set(%d) expected error", pos)
		} else if !strings.Contains(err.Error(), "out of range") {
			t.Errorf("Set(%d) unexpected error: %v", pos, err)
		}
	}
	if editor.Text() != before {
		t.Error("failed Set must not modify the document")
	}
}

func TestEditorEntriesAreCopies(t *testing.T) {
	editor := NewEditor(editorSample, DefaultRules())
	entries := editor.Entries()
	entries[0].Text = "mutated"

	if editor.Entries()[0].Text != "Hello world" {
		t.Error("mutating Entries() result changed the editor")
	}

	doc := Parse(editorSample)
	fromDoc := NewEditorFromDocument(doc, DefaultRules())
	doc[0].Index = "99"
	if fromDoc.Entries()[0].Index != "1" {
		t.Error("editor shares its document with the caller")
	}
}

func TestParseField(t *testing.T) {
	tests := []struct {
		name    string
		want    Field
		wantErr bool
	}{
		{"index", FieldIndex, false},
		{"id", FieldIndex, false},
		{"time", FieldTime, false},
		{"start", FieldStart, false},
		{"end", FieldEnd, false},
		{"text", FieldText, false},
		{"color", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseField(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseField(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseField(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}
