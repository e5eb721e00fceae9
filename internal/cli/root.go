package cli

import (
	"github.com/mgpai22/subview/internal/logging"
	"github.com/mgpai22/subview/internal/subtitle"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "subview",
	Short: "Validate, edit and preview SubRip subtitles",
	Long: `Subview checks SubRip (.srt) subtitle files for structural and timing
problems, lets you edit entries and regenerate canonical text, and burns
subtitles into a video for a quick preview.

It can also run as an HTTP server for upload-based validation and editing.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		Bool("lenient", false, "Only check timestamp presence and order")
	rootCmd.PersistentFlags().
		Bool("check-ranges", false, "Flag minutes or seconds of 60 and above")
	rootCmd.PersistentFlags().
		Bool("check-sequence", false, "Flag entries that start before the previous one ends")
}

// rulesFromFlags builds the validation rules shared by every command.
func rulesFromFlags(cmd *cobra.Command) subtitle.Rules {
	lenient, _ := cmd.Flags().GetBool("lenient")
	checkRanges, _ := cmd.Flags().GetBool("check-ranges")
	checkSequence, _ := cmd.Flags().GetBool("check-sequence")

	rules := subtitle.DefaultRules()
	if lenient {
		rules = subtitle.Rules{}
	}
	rules.CheckRanges = checkRanges
	rules.CheckSequence = checkSequence
	return rules
}
