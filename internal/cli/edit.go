package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mgpai22/subview/internal/subtitle"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit [subtitle_file]",
	Short: "Edit entries and write canonical subtitle text",
	Long: `Edit applies field edits to a subtitle file, re-validates it and writes
the regenerated text. Without --set it normalizes the file.

Edits use the form POSITION.FIELD=VALUE where POSITION is the 1-based entry
position and FIELD is one of index, time, start, end, text.

Examples:
  subview edit movie.srt --set 2.time="00:00:03,000 --> 00:00:05,000"
  subview edit movie.srt --set 1.text="Hello" -o fixed.srt
  subview edit movie.srt -o movie.vtt
  subview edit movie.srt --in-place`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().
		StringArray("set", nil, "Field edit POSITION.FIELD=VALUE (repeatable)")
	editCmd.Flags().
		StringP("format", "f", "", "Output format (srt, vtt); defaults to the output extension")
	editCmd.Flags().
		Bool("in-place", false, "Overwrite the input file")
	editCmd.Flags().
		Bool("force", false, "Write output even when validation fails")
}

type fieldEdit struct {
	pos   int
	field subtitle.Field
	value string
}

func parseEdit(arg string) (fieldEdit, error) {
	target, value, ok := strings.Cut(arg, "=")
	if !ok {
		return fieldEdit{}, fmt.Errorf("invalid edit %q: expected POSITION.FIELD=VALUE", arg)
	}
	posStr, fieldStr, ok := strings.Cut(target, ".")
	if !ok {
		return fieldEdit{}, fmt.Errorf("invalid edit %q: expected POSITION.FIELD=VALUE", arg)
	}
	pos, err := strconv.Atoi(strings.TrimSpace(posStr))
	if err != nil || pos < 1 {
		return fieldEdit{}, fmt.Errorf("invalid edit %q: position must be a positive number", arg)
	}
	field, err := subtitle.ParseField(strings.TrimSpace(fieldStr))
	if err != nil {
		return fieldEdit{}, fmt.Errorf("invalid edit %q: %w", arg, err)
	}
	return fieldEdit{pos: pos - 1, field: field, value: value}, nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	sets, _ := cmd.Flags().GetStringArray("set")
	formatStr, _ := cmd.Flags().GetString("format")
	inPlace, _ := cmd.Flags().GetBool("in-place")
	force, _ := cmd.Flags().GetBool("force")
	outputPath, _ := cmd.Flags().GetString("output")

	if inPlace {
		if outputPath != "" {
			return fmt.Errorf("--in-place and --output are mutually exclusive")
		}
		outputPath = inputPath
	}

	edits := make([]fieldEdit, 0, len(sets))
	for _, arg := range sets {
		edit, err := parseEdit(arg)
		if err != nil {
			return err
		}
		edits = append(edits, edit)
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open subtitle file: %w", err)
	}
	text, err := subtitle.ReadText(file)
	_ = file.Close()
	if err != nil {
		return fmt.Errorf("failed to read subtitle file: %w", err)
	}

	editor := subtitle.NewEditor(text, rulesFromFlags(cmd))
	logger.Infow("Parsed subtitle file",
		"file", inputPath,
		"entries", editor.Len(),
	)

	for _, edit := range edits {
		if _, err := editor.Set(edit.pos, edit.field, edit.value); err != nil {
			return fmt.Errorf("failed to apply edit to entry %d: %w", edit.pos+1, err)
		}
		logger.Debugw("Applied edit",
			"position", edit.pos+1,
			"field", edit.field,
		)
	}

	report := editor.Report()
	for _, d := range report.All() {
		logger.Warnw(d.Message, "kind", d.Kind)
	}
	if !report.Valid() && !force {
		return fmt.Errorf(
			"%d problem(s) remain after editing; use --force to write anyway",
			len(report.All()),
		)
	}

	out := cmd.OutOrStdout()
	if outputPath == "" {
		if formatStr == string(subtitle.FormatVTT) {
			fmt.Fprint(out, subtitle.RenderVTT(editor.Entries()))
		} else {
			fmt.Fprint(out, editor.Text())
		}
		return nil
	}

	format := subtitle.Format(strings.ToLower(formatStr))
	if format != "" && filepath.Ext(outputPath) == "" {
		outputPath += subtitle.GetExtensionForFormat(format)
	}
	if format == "" {
		format, err = subtitle.GetFormatFromExtension(outputPath)
		if err != nil {
			return err
		}
	}
	writer, err := subtitle.NewWriter(format)
	if err != nil {
		return fmt.Errorf("failed to create subtitle writer: %w", err)
	}
	if err := writer.Write(editor.Entries(), outputPath); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(out, "Subtitles written: %s\n", absOutput)
	fmt.Fprintf(out, "  Entries: %d\n", editor.Len())
	fmt.Fprintf(out, "  Edits: %d\n", len(edits))

	return nil
}
