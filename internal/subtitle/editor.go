package subtitle

import (
	"fmt"
)

// Field names an editable part of an entry.
type Field string

const (
	FieldIndex Field = "index"
	FieldTime  Field = "time"
	FieldStart Field = "start"
	FieldEnd   Field = "end"
	FieldText  Field = "text"
)

// ParseField maps a user supplied field name to a Field.
func ParseField(name string) (Field, error) {
	switch f := Field(name); f {
	case FieldIndex, FieldTime, FieldStart, FieldEnd, FieldText:
		return f, nil
	case "id":
		return FieldIndex, nil
	default:
		return "", fmt.Errorf("unknown field %q", name)
	}
}

// Editor holds one document being edited together with its latest report.
// An Editor is not safe for concurrent use.
type Editor struct {
	doc    Document
	rules  Rules
	report Report
}

func NewEditor(text string, rules Rules) *Editor {
	return NewEditorFromDocument(Parse(text), rules)
}

func NewEditorFromDocument(doc Document, rules Rules) *Editor {
	e := &Editor{doc: doc.Clone(), rules: rules}
	e.report = Validate(e.doc, e.rules)
	return e
}

// Entries returns a copy of the current document.
func (e *Editor) Entries() Document {
	return e.doc.Clone()
}

func (e *Editor) Report() Report {
	return e.report
}

func (e *Editor) Len() int {
	return len(e.doc)
}

// Set replaces one field of the entry at pos and re-validates.
func (e *Editor) Set(pos int, field Field, value string) (Report, error) {
	if pos < 0 || pos >= len(e.doc) {
		return e.report, fmt.Errorf(
			"index %d out of range (0-%d)",
			pos,
			len(e.doc)-1,
		)
	}

	doc := e.doc.Clone()
	entry := &doc[pos]
	switch field {
	case FieldIndex:
		entry.Index = value
	case FieldTime:
		entry.StartTime, entry.EndTime = splitTimeRange(value)
	case FieldStart:
		entry.StartTime = value
	case FieldEnd:
		entry.EndTime = value
	case FieldText:
		entry.Text = value
	default:
		return e.report, fmt.Errorf("unknown field %q", field)
	}

	e.doc = doc
	e.report = Validate(e.doc, e.rules)
	return e.report, nil
}

// Text regenerates canonical SubRip text for the current document.
func (e *Editor) Text() string {
	return Serialize(e.doc)
}
