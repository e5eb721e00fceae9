package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/subview/internal/ffmpeg"
	"github.com/mgpai22/subview/internal/logging"
	"github.com/mgpai22/subview/internal/subtitle"
)

// returned when a subtitle file fails validation before burn-in
type ValidationError struct {
	Diagnostics []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf(
		"subtitle validation failed: %s",
		strings.Join(e.Diagnostics, "; "),
	)
}

// holds options for subtitle burn-in
type BurnOptions struct {
	VideoCodec string // e.g. libx264
	AudioCodec string // "copy" keeps the source track
}

// returns the codec settings used for previews
func DefaultBurnOptions() BurnOptions {
	return BurnOptions{
		VideoCodec: "libx264",
		AudioCodec: "copy",
	}
}

// PreviewRequest describes one burn-in. Every subtitle file is validated and
// the first one is rendered into the video.
type PreviewRequest struct {
	VideoPath     string
	SubtitlePaths []string
	OutputPath    string
	Rules         subtitle.Rules
	Options       BurnOptions
}

// runs ffmpeg for previews and ffprobe for durations
type Processor struct {
	bins   *ffmpegbin.Resolver
	logger *logging.Logger

	// replaced in tests
	run func(ctx context.Context, name string, args []string) ([]byte, error)
}

func NewProcessor(bins *ffmpegbin.Resolver, logger *logging.Logger) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{
		bins:   bins,
		logger: logger,
		run:    runCommand,
	}
}

// ValidateSubtitles checks every file and returns all diagnostics, each
// prefixed with its file name when more than one file is given.
func ValidateSubtitles(paths []string, rules subtitle.Rules) []string {
	var diagnostics []string
	for _, path := range paths {
		result := subtitle.CheckFile(path, rules)
		for _, msg := range result.Diagnostics {
			if len(paths) > 1 {
				msg = filepath.Base(path) + ": " + msg
			}
			diagnostics = append(diagnostics, msg)
		}
	}
	return diagnostics
}

// Preview validates the subtitles and burns the first one into the video.
func (p *Processor) Preview(ctx context.Context, req PreviewRequest) error {
	if len(req.SubtitlePaths) == 0 {
		return fmt.Errorf("at least one subtitle file is required")
	}
	if _, err := os.Stat(req.VideoPath); os.IsNotExist(err) {
		return fmt.Errorf("video file not found: %s", req.VideoPath)
	}

	if diags := ValidateSubtitles(req.SubtitlePaths, req.Rules); len(diags) > 0 {
		return &ValidationError{Diagnostics: diags}
	}

	p.warnIfPastEnd(ctx, req.VideoPath, req.SubtitlePaths[0], req.Rules)

	opts := req.Options
	if opts.VideoCodec == "" {
		opts = DefaultBurnOptions()
	}
	return p.BurnSubtitles(
		ctx,
		req.VideoPath,
		req.SubtitlePaths[0],
		req.OutputPath,
		opts,
	)
}

// BurnSubtitles renders subtitlePath into the video, overwriting outputPath.
func (p *Processor) BurnSubtitles(
	ctx context.Context,
	videoPath, subtitlePath, outputPath string,
	opts BurnOptions,
) error {
	ffmpegPath, err := p.bins.FFmpegPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	args := burnArgs(videoPath, subtitlePath, outputPath, opts)
	p.logger.Debugw("Running ffmpeg",
		"path", ffmpegPath,
		"args", strings.Join(args, " "),
	)

	if out, err := p.run(ctx, ffmpegPath, args); err != nil {
		return fmt.Errorf("ffmpeg burn-in failed: %w: %s", err, tail(out, 500))
	}
	return nil
}

func burnArgs(
	videoPath, subtitlePath, outputPath string,
	opts BurnOptions,
) []string {
	kwargs := ffmpeg.KwArgs{
		"vf":  "subtitles=" + escapeFilterPath(subtitlePath),
		"c:v": opts.VideoCodec,
	}
	if opts.AudioCodec != "" {
		kwargs["c:a"] = opts.AudioCodec
	}

	return ffmpeg.Input(videoPath).
		Output(outputPath, kwargs).
		OverWriteOutput().
		GetArgs()
}

// escapes a path for use as a filtergraph option value
func escapeFilterPath(path string) string {
	path = filepath.ToSlash(path)
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`:`, `\:`,
		`'`, `\'`,
		`,`, `\,`,
		`[`, `\[`,
		`]`, `\]`,
	)
	return replacer.Replace(path)
}

// JSON output from ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration probes the length of a media file.
func (p *Processor) Duration(ctx context.Context, path string) (time.Duration, error) {
	ffprobePath, err := p.bins.FFprobePath()
	if err != nil {
		return 0, err
	}

	out, err := p.run(ctx, ffprobePath, []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	})
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var seconds float64
	if _, err := fmt.Sscanf(probe.Format.Duration, "%f", &seconds); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

// logs when subtitles run past the end of the video; never fails the preview
func (p *Processor) warnIfPastEnd(
	ctx context.Context,
	videoPath, subtitlePath string,
	rules subtitle.Rules,
) {
	duration, err := p.Duration(ctx, videoPath)
	if err != nil {
		p.logger.Debugw("Skipping duration check", "error", err)
		return
	}

	doc, _ := subtitle.LoadFile(subtitlePath, rules)
	end, ok := LastEnd(doc)
	if !ok {
		return
	}
	if end > duration {
		p.logger.Warnw("Subtitles end after the video",
			"subtitle_end", end.String(),
			"video_duration", duration.String(),
		)
	}
}

// LastEnd returns the latest end time in doc.
func LastEnd(doc subtitle.Document) (time.Duration, bool) {
	var latest int64 = -1
	for _, e := range doc {
		ms, err := subtitle.ParseTimestamp(e.EndTime)
		if err == nil && ms > latest {
			latest = ms
		}
	}
	if latest < 0 {
		return 0, false
	}
	return time.Duration(latest) * time.Millisecond, true
}

func runCommand(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) ||
			errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return stderr.Bytes(), ctx.Err()
		}
		return stderr.Bytes(), err
	}
	return stdout.Bytes(), nil
}

func tail(out []byte, n int) string {
	s := strings.TrimSpace(string(out))
	if len(s) > n {
		return "..." + s[len(s)-n:]
	}
	return s
}
