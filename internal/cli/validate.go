package cli

import (
	"encoding/json"
	"fmt"

	"github.com/mgpai22/subview/internal/subtitle"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [subtitle_file...]",
	Short: "Validate one or more SubRip files",
	Long: `Validate parses each subtitle file and reports every problem found:
missing or malformed timestamps, start times not before end times, missing
or non-numeric indices and empty captions.

Examples:
  subview validate movie.srt
  subview validate *.srt --check-sequence
  subview validate movie.srt --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().
		Bool("json", false, "Print results as JSON")
}

type fileResult struct {
	File string `json:"file"`
	subtitle.Result
}

func runValidate(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	rules := rulesFromFlags(cmd)
	out := cmd.OutOrStdout()

	results := make([]fileResult, 0, len(args))
	failed := 0
	for _, path := range args {
		logger.Debugw("Validating subtitle file", "file", path)

		result := subtitle.CheckFile(path, rules)
		if !result.Valid {
			failed++
		}
		results = append(results, fileResult{File: path, Result: result})
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	} else {
		for _, r := range results {
			if r.Valid {
				fmt.Fprintf(out, "%s: valid\n", r.File)
				continue
			}
			fmt.Fprintf(out, "%s: %d problem(s)\n", r.File, len(r.Diagnostics))
			for _, msg := range r.Diagnostics {
				fmt.Fprintf(out, "  - %s\n", msg)
			}
		}
	}

	logger.Infow("Validation complete",
		"files", len(args),
		"failed", failed,
	)

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed validation", failed, len(args))
	}
	return nil
}
