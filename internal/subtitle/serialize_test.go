package subtitle

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSerialize(t *testing.T) {
	doc := Document{
		{Index: "1", StartTime: "00:00:01,000", EndTime: "00:00:02,000", Text: "Hello world "},
		{Index: "2", StartTime: "00:00:05,000", EndTime: "00:00:03,000", Text: "Late text"},
	}

	want := "1\n00:00:01,000 --> 00:00:02,000\nHello world\n\n" +
		"2\n00:00:05,000 --> 00:00:03,000\nLate text\n"
	if got := Serialize(doc); got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerializeEmpty(t *testing.T) {
	if got := Serialize(Document{}); got != "" {
		t.Errorf("Serialize(empty) = %q, want empty string", got)
	}
}

func TestSerializeDropsBlankCaptionLines(t *testing.T) {
	doc := Document{
		{Index: "1", StartTime: "00:00:01,000", EndTime: "00:00:02,000", Text: "top\n\n  bottom  "},
		{Index: "2", StartTime: "00:00:03,000", EndTime: "00:00:04,000", Text: "next"},
	}

	want := "1\n00:00:01,000 --> 00:00:02,000\ntop\nbottom\n\n" +
		"2\n00:00:03,000 --> 00:00:04,000\nnext\n"
	if got := Serialize(doc); got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}

	// the edited caption survives as one block
	reparsed := Parse(Serialize(doc))
	if len(reparsed) != 2 {
		t.Fatalf("expected 2 entries after reparse, got %d", len(reparsed))
	}
	if reparsed[0].Text != "top bottom" {
		t.Errorf("expected joined caption, got %q", reparsed[0].Text)
	}
}

func TestRoundTrip(t *testing.T) {
	docs := map[string]Document{
		"single": {
			{Index: "1", StartTime: "00:00:01,000", EndTime: "00:00:02,000", Text: "Hello"},
		},
		"out of order times": {
			{Index: "1", StartTime: "00:00:05,000", EndTime: "00:00:03,000", Text: "Late text"},
			{Index: "2", StartTime: "00:00:01,000", EndTime: "00:00:02,000", Text: "Early"},
		},
		"numeric caption": {
			{Index: "1", StartTime: "00:00:01,000", EndTime: "00:00:02,000", Text: "42"},
		},
		"caption that looks like timing": {
			{Index: "9", StartTime: "00:00:01,000", EndTime: "00:00:02,000", Text: "00:00:01,000 --> 00:00:02,000"},
		},
		"non sequential indices": {
			{Index: "10", StartTime: "00:00:01,000", EndTime: "00:00:02,000", Text: "ten"},
			{Index: "3", StartTime: "00:00:02,000", EndTime: "00:00:03,000", Text: "three"},
		},
	}

	generated := Document{}
	for i := 0; i < 50; i++ {
		start := int64(i) * 2500
		generated = append(generated, Entry{
			Index:     fmt.Sprint(i + 1),
			StartTime: FormatTimestamp(start),
			EndTime:   FormatTimestamp(start + 1999),
			Text:      fmt.Sprintf("line %d with, punctuation!", i),
		})
	}
	docs["generated"] = generated

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			got := Parse(Serialize(doc))
			if diff := cmp.Diff(doc, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseSerializeIsStable(t *testing.T) {
	input := "\ufeff1\r\n00:00:01,000 --> 00:00:02,000\r\nfirst line\r\n  second line\r\n\r\n\r\n" +
		"garbage block\r\n\r\n" +
		"2\r\n00:00:03,000 --> 00:00:04,000\r\nlast"

	once := Serialize(Parse(input))
	twice := Serialize(Parse(once))
	if once != twice {
		t.Errorf("serialization not stable:\nonce:  %q\ntwice: %q", once, twice)
	}
	want := "1\n00:00:01,000 --> 00:00:02,000\nfirst line second line\n\n" +
		"2\n00:00:03,000 --> 00:00:04,000\nlast\n"
	if once != want {
		t.Errorf("Serialize(Parse()) = %q, want %q", once, want)
	}
}
