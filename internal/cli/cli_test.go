package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mgpai22/subview/internal/subtitle"
	"github.com/spf13/cobra"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:02,000
Hello world

2
00:00:05,000 --> 00:00:03,000
Late text
`

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestParseEdit(t *testing.T) {
	tests := []struct {
		arg     string
		want    fieldEdit
		wantErr bool
	}{
		{"1.text=Hello", fieldEdit{pos: 0, field: subtitle.FieldText, value: "Hello"}, false},
		{"2.time=00:00:03,000 --> 00:00:05,000", fieldEdit{pos: 1, field: subtitle.FieldTime, value: "00:00:03,000 --> 00:00:05,000"}, false},
		{"3.id=7", fieldEdit{pos: 2, field: subtitle.FieldIndex, value: "7"}, false},
		{"1.text=a=b", fieldEdit{pos: 0, field: subtitle.FieldText, value: "a=b"}, false},
		{"1.text=", fieldEdit{pos: 0, field: subtitle.FieldText, value: ""}, false},
		{"text=Hello", fieldEdit{}, true},
		{"1.text", fieldEdit{}, true},
		{"0.text=x", fieldEdit{}, true},
		{"x.text=x", fieldEdit{}, true},
		{"1.color=red", fieldEdit{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseEdit(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseEdit(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseEdit(%q) = %+v, want %+v", tt.arg, got, tt.want)
			}
		})
	}
}

func TestRulesFromFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want subtitle.Rules
	}{
		{"defaults", nil, subtitle.DefaultRules()},
		{
			name: "lenient",
			args: []string{"--lenient"},
			want: subtitle.Rules{},
		},
		{
			name: "extra checks",
			args: []string{"--check-ranges", "--check-sequence"},
			want: subtitle.Rules{
				RequireFormat: true,
				RequireIndex:  true,
				RequireText:   true,
				CheckRanges:   true,
				CheckSequence: true,
			},
		},
		{
			name: "lenient with sequence",
			args: []string{"--lenient", "--check-sequence"},
			want: subtitle.Rules{CheckSequence: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.Flags().Bool("lenient", false, "")
			cmd.Flags().Bool("check-ranges", false, "")
			cmd.Flags().Bool("check-sequence", false, "")
			if err := cmd.Flags().Parse(tt.args); err != nil {
				t.Fatalf("failed to parse flags: %v", err)
			}
			if diff := cmp.Diff(tt.want, rulesFromFlags(cmd)); diff != "" {
				t.Errorf("rules mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPreviewOutputPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"movie.mp4", "movie_preview.mp4"},
		{"/videos/clip.mov", "/videos/clip_preview.mov"},
		{"noext", "noext_preview"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := previewOutputPath(tt.input); got != tt.want {
				t.Errorf("previewOutputPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateCommand(t *testing.T) {
	good := writeFile(t, "good.srt", "1\n00:00:01,000 --> 00:00:02,000\nHello\n")
	bad := writeFile(t, "bad.srt", sampleSRT)

	out, err := executeRoot(t, "validate", "--json", good, bad)
	if err == nil {
		t.Fatal("expected error when a file fails validation")
	}
	if !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("unexpected error: %v", err)
	}

	// cobra appends the error line after the JSON document
	dec := json.NewDecoder(strings.NewReader(out))
	var results []fileResult
	if err := dec.Decode(&results); err != nil {
		t.Fatalf("failed to decode output %q: %v", out, err)
	}

	want := []fileResult{
		{File: good, Result: subtitle.Result{Valid: true}},
		{File: bad, Result: subtitle.Result{
			Valid:       false,
			Diagnostics: []string{"Subtitle 2 has start time greater than or equal to end time."},
		}},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestEditCommand(t *testing.T) {
	input := writeFile(t, "input.srt", sampleSRT)
	output := filepath.Join(t.TempDir(), "fixed.srt")

	out, err := executeRoot(t, "edit", input,
		"--set", "2.time=00:00:03,000 --> 00:00:05,000",
		"--set", "1.text=Hi there",
		"-o", output,
	)
	if err != nil {
		t.Fatalf("edit failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Edits: 2") {
		t.Errorf("expected summary in output, got %q", out)
	}

	written, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	want := "1\n00:00:01,000 --> 00:00:02,000\nHi there\n\n" +
		"2\n00:00:03,000 --> 00:00:05,000\nLate text\n"
	if string(written) != want {
		t.Errorf("output = %q, want %q", written, want)
	}

	// the input is left alone unless --in-place is given
	original, _ := os.ReadFile(input)
	if string(original) != sampleSRT {
		t.Error("input file was modified")
	}
}

func TestPreviewCommandRejectsBadArgs(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "movie.mp4")
	if err := os.WriteFile(videoPath, []byte("video"), 0644); err != nil {
		t.Fatalf("failed to write video: %v", err)
	}
	subPath := writeFile(t, "a.srt", sampleSRT)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing video",
			args:    []string{"preview", filepath.Join(dir, "nope.mp4"), subPath},
			wantErr: "video file not found",
		},
		{
			name:    "non srt subtitle",
			args:    []string{"preview", videoPath, filepath.Join(dir, "a.txt")},
			wantErr: "not a SubRip file",
		},
		{
			name:    "no subtitle",
			args:    []string{"preview", videoPath},
			wantErr: "requires at least 2 arg(s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeRoot(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func newServeFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.Flags().Int("port", 0, "")
	cmd.Flags().String("upload-dir", "", "")
	cmd.Flags().String("env-file", "", "")
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return cmd
}

func TestLoadServeConfig(t *testing.T) {
	// unset rather than empty so an env file can supply them
	for _, key := range []string{
		"SUBVIEW_PORT", "SUBVIEW_UPLOAD_DIR", "SUBVIEW_PUBLIC_URL",
		"SUBVIEW_MAX_UPLOAD_MB", "SUBVIEW_FFMPEG_DOWNLOAD",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := loadServeConfig(newServeFlags(t, "--port", "8080", "--upload-dir", "/tmp/previews"))
	if err != nil {
		t.Fatalf("loadServeConfig failed: %v", err)
	}
	if cfg.Port != 8080 || cfg.Addr() != ":8080" {
		t.Errorf("expected port override, got %d", cfg.Port)
	}
	if cfg.PublicURL != "http://localhost:8080" {
		t.Errorf("public URL should follow the port flag, got %q", cfg.PublicURL)
	}
	if cfg.UploadDir != "/tmp/previews" {
		t.Errorf("unexpected upload dir %q", cfg.UploadDir)
	}

	envFile := writeFile(t, "serve.env", "SUBVIEW_PORT=7000\nSUBVIEW_FFMPEG_DOWNLOAD=false\n")
	cfg, err = loadServeConfig(newServeFlags(t, "--env-file", envFile))
	if err != nil {
		t.Fatalf("loadServeConfig with env file failed: %v", err)
	}
	if cfg.Port != 7000 {
		t.Errorf("expected port from env file, got %d", cfg.Port)
	}
	if cfg.FFmpegDownload {
		t.Error("expected download disabled by env file")
	}
}

func TestLoadServeConfigKeepsPublicURL(t *testing.T) {
	t.Setenv("SUBVIEW_PORT", "")
	t.Setenv("SUBVIEW_PUBLIC_URL", "https://subs.example.com")

	cfg, err := loadServeConfig(newServeFlags(t, "--port", "9000"))
	if err != nil {
		t.Fatalf("loadServeConfig failed: %v", err)
	}
	if cfg.PublicURL != "https://subs.example.com" {
		t.Errorf("explicit public URL was replaced: %q", cfg.PublicURL)
	}
}

func TestServeCommandRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "positional argument",
			args:    []string{"serve", "extra"},
			wantErr: "unknown command",
		},
		{
			name:    "missing env file",
			args:    []string{"serve", "--env-file", filepath.Join(t.TempDir(), "missing.env")},
			wantErr: "failed to load config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeRoot(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
