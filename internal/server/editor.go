package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mgpai22/subview/internal/subtitle"
)

type editRequest struct {
	Text  string       `json:"text"`
	Edits []entryEdit  `json:"edits"`
	Rules *rulesFields `json:"rules,omitempty"`
}

type entryEdit struct {
	Position int    `json:"position"`
	Field    string `json:"field"`
	Value    string `json:"value"`
}

type renderRequest struct {
	Entries []subtitle.Entry `json:"entries"`
	Rules   *rulesFields     `json:"rules,omitempty"`
}

// optional rule overrides; omitted fields keep the server defaults
type rulesFields struct {
	RequireFormat *bool `json:"requireFormat"`
	RequireIndex  *bool `json:"requireIndex"`
	RequireText   *bool `json:"requireText"`
	CheckRanges   *bool `json:"checkRanges"`
	CheckSequence *bool `json:"checkSequence"`
}

func (f *rulesFields) apply(rules subtitle.Rules) subtitle.Rules {
	if f == nil {
		return rules
	}
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&rules.RequireFormat, f.RequireFormat)
	set(&rules.RequireIndex, f.RequireIndex)
	set(&rules.RequireText, f.RequireText)
	set(&rules.CheckRanges, f.CheckRanges)
	set(&rules.CheckSequence, f.CheckSequence)
	return rules
}

type editorEntry struct {
	subtitle.Entry
	Diagnostics []string `json:"diagnostics"`
}

type editorResponse struct {
	Valid       bool          `json:"valid"`
	Entries     []editorEntry `json:"entries"`
	Diagnostics []string      `json:"diagnostics"`
	Text        string        `json:"text"`
}

func newEditorResponse(editor *subtitle.Editor) editorResponse {
	report := editor.Report()
	doc := editor.Entries()

	entries := make([]editorEntry, len(doc))
	for i, e := range doc {
		msgs := []string{}
		if i < len(report.Entries) {
			for _, d := range report.Entries[i] {
				msgs = append(msgs, d.Message)
			}
		}
		entries[i] = editorEntry{Entry: e, Diagnostics: msgs}
	}

	docMsgs := []string{}
	for _, d := range report.Document {
		docMsgs = append(docMsgs, d.Message)
	}

	return editorResponse{
		Valid:       report.Valid(),
		Entries:     entries,
		Diagnostics: docMsgs,
		Text:        editor.Text(),
	}
}

// edit parses raw text, applies field edits in order and returns the
// resulting entries with their diagnostics.
func (s *Server) edit(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	editor := subtitle.NewEditor(req.Text, req.Rules.apply(s.rules))
	for _, edit := range req.Edits {
		field, err := subtitle.ParseField(edit.Field)
		if err == nil {
			_, err = editor.Set(edit.Position, field, edit.Value)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid edit",
				"details": err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, newEditorResponse(editor))
}

// render validates already structured entries and regenerates their text.
func (s *Server) render(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	editor := subtitle.NewEditorFromDocument(
		subtitle.Document(req.Entries),
		req.Rules.apply(s.rules),
	)
	c.JSON(http.StatusOK, newEditorResponse(editor))
}
