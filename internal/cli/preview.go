package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/subview/internal/config"
	"github.com/mgpai22/subview/internal/ffmpeg"
	"github.com/mgpai22/subview/internal/subtitle"
	"github.com/mgpai22/subview/internal/video"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview [video_file] [subtitle_file...]",
	Short: "Burn subtitles into a video for preview",
	Long: `Preview validates every subtitle file and, when all of them pass,
burns the first one into the video using FFmpeg.

FFmpeg is located from --ffmpeg-path, SUBVIEW_FFMPEG_PATH or PATH. When
none of these has it, a prebuilt ffmpeg is downloaded into the user cache
directory unless --no-download or SUBVIEW_FFMPEG_DOWNLOAD=false is set.
ffprobe is optional and only used to warn about subtitles past the end.

Examples:
  subview preview movie.mp4 movie.srt
  subview preview movie.mp4 movie.srt -o preview.mp4
  subview preview movie.mp4 en.srt fr.srt --video-codec libx265`,
	Args: cobra.MinimumNArgs(2),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().
		String("ffmpeg-path", "", "Path to the ffmpeg binary")
	previewCmd.Flags().
		String("ffprobe-path", "", "Path to the ffprobe binary")
	previewCmd.Flags().
		String("video-codec", "libx264", "Video codec for the preview")
	previewCmd.Flags().
		String("audio-codec", "copy", "Audio codec for the preview")
	previewCmd.Flags().
		Bool("no-download", false, "Never download ffmpeg when it is not installed")
}

func previewOutputPath(videoPath string) string {
	ext := filepath.Ext(videoPath)
	return strings.TrimSuffix(videoPath, ext) + "_preview" + ext
}

func runPreview(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	subtitlePaths := args[1:]

	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return fmt.Errorf("video file not found: %s", videoPath)
	}
	for _, path := range subtitlePaths {
		if !subtitle.IsSubtitleFile(path) {
			return fmt.Errorf("not a SubRip file: %s", path)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	ffmpegPath, _ := cmd.Flags().GetString("ffmpeg-path")
	ffprobePath, _ := cmd.Flags().GetString("ffprobe-path")
	if ffmpegPath == "" {
		ffmpegPath = cfg.FFmpegPath
	}
	if ffprobePath == "" {
		ffprobePath = cfg.FFprobePath
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = previewOutputPath(videoPath)
	}

	opts := video.DefaultBurnOptions()
	opts.VideoCodec, _ = cmd.Flags().GetString("video-codec")
	opts.AudioCodec, _ = cmd.Flags().GetString("audio-codec")

	resolver := ffmpeg.NewResolver(ffmpegPath, ffprobePath)
	noDownload, _ := cmd.Flags().GetBool("no-download")
	resolver.Download = cfg.FFmpegDownload && !noDownload

	processor := video.NewProcessor(resolver, logger.Named("video"))

	logger.Infow("Starting preview",
		"video", videoPath,
		"subtitles", len(subtitlePaths),
		"output", outputPath,
	)

	err = processor.Preview(cmd.Context(), video.PreviewRequest{
		VideoPath:     videoPath,
		SubtitlePaths: subtitlePaths,
		OutputPath:    outputPath,
		Rules:         rulesFromFlags(cmd),
		Options:       opts,
	})
	if err != nil {
		var verr *video.ValidationError
		if errors.As(err, &verr) {
			out := cmd.ErrOrStderr()
			fmt.Fprintln(out, "Subtitle validation failed:")
			for _, msg := range verr.Diagnostics {
				fmt.Fprintf(out, "  - %s\n", msg)
			}
		}
		return fmt.Errorf("preview failed: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Preview generated: %s\n", absOutput)

	return nil
}
