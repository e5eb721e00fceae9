package ffmpeg

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	envFFmpegPath  = "SUBVIEW_FFMPEG_PATH"
	envFFprobePath = "SUBVIEW_FFPROBE_PATH"

	ffmpegReleaseVersion = "6.1"
	ffmpegReleaseBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"
)

var ErrNotFound = errors.New("ffmpeg binaries not found")

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

// one lazily resolved executable
type binary struct {
	once sync.Once
	path string
	err  error
}

// Resolver finds ffmpeg and ffprobe independently and caches each answer.
// Lookup order: explicit path, environment, PATH, then a cached or fresh
// download from ffbinaries when Download is set.
type Resolver struct {
	FFmpeg  string
	FFprobe string

	Download bool
	// defaults to os.UserCacheDir
	CacheDir string

	lookPath func(string) (string, error)
	baseURL  string
	client   *http.Client

	ffmpeg  binary
	ffprobe binary
}

func NewResolver(ffmpegPath, ffprobePath string) *Resolver {
	return &Resolver{
		FFmpeg:   ffmpegPath,
		FFprobe:  ffprobePath,
		Download: true,
		lookPath: exec.LookPath,
		baseURL:  ffmpegReleaseBaseURL,
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
}

// Paths resolves both binaries. Callers that only need one should use
// FFmpegPath or FFprobePath.
func (r *Resolver) Paths() (BinaryPaths, error) {
	ffmpegPath, err := r.FFmpegPath()
	if err != nil {
		return BinaryPaths{}, err
	}
	ffprobePath, err := r.FFprobePath()
	if err != nil {
		return BinaryPaths{}, err
	}
	return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

func (r *Resolver) FFmpegPath() (string, error) {
	r.ffmpeg.once.Do(func() {
		r.ffmpeg.path, r.ffmpeg.err = r.find(r.FFmpeg, envFFmpegPath, "ffmpeg")
	})
	return r.ffmpeg.path, r.ffmpeg.err
}

func (r *Resolver) FFprobePath() (string, error) {
	r.ffprobe.once.Do(func() {
		r.ffprobe.path, r.ffprobe.err = r.find(r.FFprobe, envFFprobePath, "ffprobe")
	})
	return r.ffprobe.path, r.ffprobe.err
}

func (r *Resolver) find(explicit, envKey, name string) (string, error) {
	candidate := explicit
	if candidate == "" {
		candidate = os.Getenv(envKey)
	}
	if candidate != "" {
		if !fileExists(candidate) {
			return "", fmt.Errorf("%s not found at %s", name, candidate)
		}
		return candidate, nil
	}

	lookPath := r.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if found, err := lookPath(name); err == nil {
		return found, nil
	}

	if !r.Download {
		return "", fmt.Errorf("%w: install %s or set %s", ErrNotFound, name, envKey)
	}
	path, err := r.download(name)
	if err != nil {
		return "", fmt.Errorf(
			"%w: install %s or set %s (download failed: %v)",
			ErrNotFound,
			name,
			envKey,
			err,
		)
	}
	return path, nil
}

func (r *Resolver) installDir() string {
	cacheDir := r.CacheDir
	if cacheDir == "" {
		dir, err := os.UserCacheDir()
		if err != nil || dir == "" {
			dir = os.TempDir()
		}
		cacheDir = dir
	}
	return filepath.Join(
		cacheDir,
		"subview",
		"ffmpeg",
		ffmpegReleaseVersion,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// download fetches the ffbinaries archive for name unless a previous run
// already left the binary in the cache directory.
func (r *Resolver) download(name string) (string, error) {
	assetName, err := assetForPlatform(name, runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return "", err
	}

	installDir := r.installDir()
	dest := filepath.Join(installDir, name+executableSuffix())
	if fileExists(dest) {
		return dest, nil
	}
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return "", fmt.Errorf("create ffmpeg cache dir: %w", err)
	}

	baseURL := r.baseURL
	if baseURL == "" {
		baseURL = ffmpegReleaseBaseURL
	}
	client := r.client
	if client == nil {
		client = http.DefaultClient
	}

	url := fmt.Sprintf("%s/v%s/%s", baseURL, ffmpegReleaseVersion, assetName)
	resp, err := client.Get(url)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", assetName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status %s", assetName, resp.Status)
	}

	if err := extractArchiveFromReader(name, resp.Body, dest); err != nil {
		return "", fmt.Errorf("extract %s: %w", assetName, err)
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(dest, 0o755); err != nil {
			return "", fmt.Errorf("chmod %s: %w", name, err)
		}
	}
	return dest, nil
}

// ffbinaries ships one archive per binary
func assetForPlatform(name, goos, goarch string) (string, error) {
	var platform string
	switch {
	case goos == "linux" && goarch == "amd64":
		platform = "linux-64"
	case goos == "linux" && goarch == "arm64":
		platform = "linux-arm-64"
	case goos == "darwin" && goarch == "amd64":
		platform = "macos-64"
	case goos == "windows" && goarch == "amd64":
		platform = "win-64"
	default:
		return "", fmt.Errorf("no prebuilt %s for %s/%s", name, goos, goarch)
	}
	return fmt.Sprintf("%s-%s-%s.zip", name, ffmpegReleaseVersion, platform), nil
}

// zip needs random access, so the body is spooled to a temp file first
func extractArchiveFromReader(name string, reader io.Reader, dest string) error {
	tmpFile, err := os.CreateTemp("", "subview-"+name+"-*.zip")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	archivePath := tmpFile.Name()
	defer func() { _ = os.Remove(archivePath) }()

	if _, err := io.Copy(tmpFile, reader); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	zipReader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = zipReader.Close() }()

	for _, file := range zipReader.File {
		if isBinary(filepath.Base(file.Name), name) {
			return extractZipFile(file, dest)
		}
	}
	return fmt.Errorf("archive does not contain %s", name)
}

func extractZipFile(file *zip.File, dest string) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open archive entry: %w", err)
	}
	defer func() { _ = reader.Close() }()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create binary: %w", err)
	}
	if _, err := io.Copy(out, reader); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("write binary: %w", err)
	}
	return out.Close()
}

func isBinary(entry, name string) bool {
	entry = strings.ToLower(entry)
	return entry == name || entry == name+".exe"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
