package subtitle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the rule that produced a diagnostic.
type Kind string

const (
	KindUnreadableInput     Kind = "unreadable_input"
	KindEmptyDocument       Kind = "empty_document"
	KindMissingTimestamp    Kind = "missing_timestamp"
	KindInvalidTimeOrder    Kind = "invalid_time_order"
	KindInvalidTimeFormat   Kind = "invalid_time_format"
	KindInvalidIndex        Kind = "invalid_index"
	KindEmptyText           Kind = "empty_text"
	KindTimestampOutOfRange Kind = "timestamp_out_of_range"
	KindOverlap             Kind = "overlap"
)

// DocumentLevel is the Entry value of diagnostics about the whole document.
const DocumentLevel = -1

// Diagnostic is a non-fatal finding about one entry or the whole document.
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Entry   int    `json:"entry"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return d.Message
}

// Rules selects which checks Validate runs. Presence and time order always
// run.
type Rules struct {
	RequireFormat bool
	RequireIndex  bool
	RequireText   bool

	// off by default: the source format does not forbid these
	CheckRanges   bool
	CheckSequence bool
}

// DefaultRules is used by both the upload check and the editor.
func DefaultRules() Rules {
	return Rules{
		RequireFormat: true,
		RequireIndex:  true,
		RequireText:   true,
	}
}

// Report holds document level diagnostics plus one slot per entry.
type Report struct {
	Document []Diagnostic   `json:"document"`
	Entries  [][]Diagnostic `json:"entries"`
}

func (r Report) Valid() bool {
	return len(r.All()) == 0
}

// All flattens the report, document diagnostics first, then entries in order.
func (r Report) All() []Diagnostic {
	all := append([]Diagnostic(nil), r.Document...)
	for _, diags := range r.Entries {
		all = append(all, diags...)
	}
	return all
}

func (r Report) Messages() []string {
	all := r.All()
	msgs := make([]string, 0, len(all))
	for _, d := range all {
		msgs = append(msgs, d.Message)
	}
	return msgs
}

const (
	msgUnreadable    = "Error reading the subtitle file: %v"
	msgEmptyDocument = "The subtitle file is empty or improperly formatted."
	msgMissingTimes  = "Subtitle %s has missing timestamps."
	msgTimeOrder     = "Subtitle %s has start time greater than or equal to end time."
	msgTimeFormat    = "Subtitle %s has invalid timestamp format."
	msgInvalidIndex  = "Subtitle %s has missing or invalid ID."
	msgEmptyText     = "Subtitle %s text is empty."
	msgOutOfRange    = "Subtitle %s has a timestamp component out of range."
	msgOverlap       = "Subtitle %s starts before the previous subtitle ends."
)

// Unreadable reports input that could not be read or decoded.
func Unreadable(err error) Report {
	return Report{
		Document: []Diagnostic{{
			Kind:    KindUnreadableInput,
			Entry:   DocumentLevel,
			Message: fmt.Sprintf(msgUnreadable, err),
		}},
	}
}

// Validate checks every entry of doc and never stops at the first failure.
func Validate(doc Document, rules Rules) Report {
	if len(doc) == 0 {
		return Report{
			Document: []Diagnostic{{
				Kind:    KindEmptyDocument,
				Entry:   DocumentLevel,
				Message: msgEmptyDocument,
			}},
		}
	}

	report := Report{Entries: make([][]Diagnostic, len(doc))}
	prevEnd := int64(-1)

	for i, e := range doc {
		diags := []Diagnostic{}
		subject := subjectOf(e, i)
		add := func(kind Kind, format string) {
			diags = append(diags, Diagnostic{
				Kind:    kind,
				Entry:   i,
				Subject: subject,
				Message: fmt.Sprintf(format, subject),
			})
		}

		if rules.RequireIndex && !validIndex(e.Index) {
			add(KindInvalidIndex, msgInvalidIndex)
		}

		start, end, timed := checkTimes(e, rules, add)
		if timed {
			if rules.CheckSequence && prevEnd >= 0 && start < prevEnd {
				add(KindOverlap, msgOverlap)
			}
			prevEnd = end
		}

		if rules.RequireText && strings.TrimSpace(e.Text) == "" {
			add(KindEmptyText, msgEmptyText)
		}

		report.Entries[i] = diags
	}

	return report
}

// checkTimes runs presence, format, range and order checks in that order and
// returns the parsed offsets when both timestamps could be converted.
func checkTimes(
	e Entry,
	rules Rules,
	add func(Kind, string),
) (start, end int64, ok bool) {
	if strings.TrimSpace(e.StartTime) == "" ||
		strings.TrimSpace(e.EndTime) == "" {
		add(KindMissingTimestamp, msgMissingTimes)
		return 0, 0, false
	}

	wellFormed := ValidTimeRange(e.StartTime, e.EndTime)
	if rules.RequireFormat && !wellFormed {
		add(KindInvalidTimeFormat, msgTimeFormat)
		return 0, 0, false
	}

	start, errStart := ParseTimestamp(e.StartTime)
	end, errEnd := ParseTimestamp(e.EndTime)
	if errStart != nil || errEnd != nil {
		// reported even when RequireFormat is off
		add(KindInvalidTimeFormat, msgTimeFormat)
		return 0, 0, false
	}

	if rules.CheckRanges &&
		(!componentsInRange(e.StartTime) || !componentsInRange(e.EndTime)) {
		add(KindTimestampOutOfRange, msgOutOfRange)
	}

	if start >= end {
		add(KindInvalidTimeOrder, msgTimeOrder)
	}

	return start, end, true
}

func validIndex(index string) bool {
	index = strings.TrimSpace(index)
	if index == "" {
		return false
	}
	v, err := strconv.ParseFloat(index, 64)
	return err == nil && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// subjectOf names an entry by its index, or by 1-based position when the
// index is empty or zero.
func subjectOf(e Entry, pos int) string {
	index := strings.TrimSpace(e.Index)
	if index == "" || index == "0" {
		return strconv.Itoa(pos + 1)
	}
	return index
}
