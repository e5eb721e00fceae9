package subtitle

import (
	"regexp"
	"strings"
)

// parser state while walking the lines of one block
type parseState int

const (
	SeekIndex parseState = iota
	SeekTimeRange
	CollectText
	// timing line read before any index line
	CollectTextNoIndex
)

func (s parseState) String() string {
	switch s {
	case SeekIndex:
		return "SeekIndex"
	case SeekTimeRange:
		return "SeekTimeRange"
	case CollectText:
		return "CollectText"
	case CollectTextNoIndex:
		return "CollectTextNoIndex"
	default:
		return "unknown"
	}
}

// classification of a single physical line
type lineKind int

const (
	lineBlank lineKind = iota
	lineIndex
	lineTimeRange
	lineText
)

// what a transition does to the accumulated entry
type action int

const (
	actFlush action = iota
	actSetIndex
	actSetTimes
	actAppendText
)

type transition struct {
	act  action
	next parseState
}

// transitions[state][kind]. Once both header lines have been read every
// non-blank line is caption text, even if it looks like a header. A block
// whose timing line comes first still takes its first digits-only line as
// the index.
var transitions = [4][4]transition{
	SeekIndex: {
		lineBlank:     {actFlush, SeekIndex},
		lineIndex:     {actSetIndex, SeekTimeRange},
		lineTimeRange: {actSetTimes, CollectTextNoIndex},
		lineText:      {actAppendText, SeekIndex},
	},
	SeekTimeRange: {
		lineBlank:     {actFlush, SeekIndex},
		lineIndex:     {actAppendText, SeekTimeRange},
		lineTimeRange: {actSetTimes, CollectText},
		lineText:      {actAppendText, SeekTimeRange},
	},
	CollectText: {
		lineBlank:     {actFlush, SeekIndex},
		lineIndex:     {actAppendText, CollectText},
		lineTimeRange: {actAppendText, CollectText},
		lineText:      {actAppendText, CollectText},
	},
	CollectTextNoIndex: {
		lineBlank:     {actFlush, SeekIndex},
		lineIndex:     {actSetIndex, CollectText},
		lineTimeRange: {actAppendText, CollectTextNoIndex},
		lineText:      {actAppendText, CollectTextNoIndex},
	},
}

var lineBreakRegex = regexp.MustCompile(`\r?\n`)

func classifyLine(line string) lineKind {
	switch {
	case line == "":
		return lineBlank
	case indexRegex.MatchString(line):
		return lineIndex
	case timeRangeRegex.MatchString(line):
		return lineTimeRange
	default:
		return lineText
	}
}

// block accumulated between blank lines
type block struct {
	entry     Entry
	hasIndex  bool
	hasTimes  bool
	textLines []string
}

func (b block) complete() bool {
	return b.hasIndex && b.hasTimes
}

func (b block) build() Entry {
	e := b.entry
	e.Text = strings.Join(b.textLines, " ")
	return e
}

// step applies one line to the accumulator and returns the new accumulator,
// the next state, and the entry to emit if the line closed a complete block.
func step(
	state parseState,
	acc block,
	line string,
) (block, parseState, *Entry) {
	line = strings.TrimSpace(line)
	t := transitions[state][classifyLine(line)]

	switch t.act {
	case actFlush:
		if acc.complete() {
			e := acc.build()
			return block{}, t.next, &e
		}
		return block{}, t.next, nil
	case actSetIndex:
		acc.entry.Index = line
		acc.hasIndex = true
	case actSetTimes:
		acc.entry.StartTime, acc.entry.EndTime = splitTimeRange(line)
		acc.hasTimes = true
	case actAppendText:
		acc.textLines = append(
			append([]string(nil), acc.textLines...),
			line,
		)
	}
	return acc, t.next, nil
}

// Parse splits raw SubRip text into a Document. Blocks missing their index or
// timing line are dropped. Parse never fails: malformed input yields fewer
// entries, which Validate reports.
func Parse(text string) Document {
	text = strings.TrimPrefix(text, "\ufeff")

	doc := Document{}
	state := SeekIndex
	acc := block{}

	for _, line := range lineBreakRegex.Split(text, -1) {
		var emitted *Entry
		acc, state, emitted = step(state, acc, line)
		if emitted != nil {
			doc = append(doc, *emitted)
		}
	}

	// input without a final blank line
	if _, _, emitted := step(state, acc, ""); emitted != nil {
		doc = append(doc, *emitted)
	}

	return doc
}
