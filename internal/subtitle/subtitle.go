package subtitle

// represents single subtitle entry as written in the source text
type Entry struct {
	Index     string `json:"index"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Text      string `json:"text"`
}

// TimeRange returns the entry's timing line, "start --> end".
func (e Entry) TimeRange() string {
	return e.StartTime + timeArrow + e.EndTime
}

// ordered list of entries in display order
type Document []Entry

// Clone returns a copy that shares no backing array with d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	copy(out, d)
	return out
}

// represents supported output formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// interface for writing documents to files
type Writer interface {
	Write(doc Document, path string) error
}
