package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mgpai22/subview/internal/subtitle"
	"github.com/mgpai22/subview/internal/video"
)

var (
	allowedVideoTypes    = regexp.MustCompile(`^\.(mp4|mov|avi)$`)
	allowedSubtitleTypes = regexp.MustCompile(`^\.srt$`)
)

func allowedUpload(field, filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	switch field {
	case "video":
		return allowedVideoTypes.MatchString(ext)
	case "subtitle":
		return allowedSubtitleTypes.MatchString(ext)
	default:
		return false
	}
}

func (s *Server) validate(c *gin.Context) {
	header, err := c.FormFile("subtitle")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Subtitle file is required.",
		})
		return
	}
	if !allowedUpload("subtitle", header.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid file type",
		})
		return
	}

	result := s.checkUpload(header)
	if !result.Valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":     false,
			"valid":       false,
			"diagnostics": result.Diagnostics,
			"errors":      result.Diagnostics,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"valid":   true,
		"message": "Subtitle file is valid.",
	})
}

func (s *Server) checkUpload(header *multipart.FileHeader) subtitle.Result {
	file, err := header.Open()
	if err != nil {
		return subtitle.Unreadable(err).Result()
	}
	defer func() {
		_ = file.Close()
	}()
	return subtitle.Check(file, s.rules)
}

func (s *Server) preview(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Video and at least one subtitle file are required.",
		})
		return
	}
	videos := form.File["video"]
	subtitles := form.File["subtitle"]
	if len(videos) == 0 || len(subtitles) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Video and at least one subtitle file are required.",
		})
		return
	}

	for field, headers := range map[string][]*multipart.FileHeader{
		"video":    videos[:1],
		"subtitle": subtitles,
	} {
		for _, h := range headers {
			if !allowedUpload(field, h.Filename) {
				c.JSON(http.StatusBadRequest, gin.H{
					"message": fmt.Sprintf("Invalid file type: %s", h.Filename),
				})
				return
			}
		}
	}

	var saved []string
	defer func() {
		for _, p := range saved {
			_ = os.Remove(p)
		}
	}()

	videoPath, err := s.saveUpload("video", videos[0])
	if err != nil {
		s.uploadFailed(c, err)
		return
	}
	saved = append(saved, videoPath)

	subtitlePaths := make([]string, 0, len(subtitles))
	for _, h := range subtitles {
		p, err := s.saveUpload("subtitle", h)
		if err != nil {
			s.uploadFailed(c, err)
			return
		}
		saved = append(saved, p)
		subtitlePaths = append(subtitlePaths, p)
	}

	outputPath, err := s.reserveOutput()
	if err != nil {
		s.uploadFailed(c, err)
		return
	}

	err = s.previewer.Preview(c.Request.Context(), video.PreviewRequest{
		VideoPath:     videoPath,
		SubtitlePaths: subtitlePaths,
		OutputPath:    outputPath,
		Rules:         s.rules,
		Options:       video.DefaultBurnOptions(),
	})

	var verr *video.ValidationError
	switch {
	case errors.As(err, &verr):
		_ = os.Remove(outputPath)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Subtitle validation failed.",
			"errors":  verr.Diagnostics,
		})
		return
	case err != nil:
		_ = os.Remove(outputPath)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"previewPath": s.publicPath(outputPath),
	})
}

// saveUpload copies an upload into the upload directory under a unique name.
func (s *Server) saveUpload(field string, header *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() {
		_ = src.Close()
	}()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	dst, err := os.CreateTemp(s.cfg.UploadDir, field+"-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer func() {
		_ = dst.Close()
	}()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return dst.Name(), nil
}

// reserveOutput picks a unique preview file name so concurrent previews do
// not overwrite each other.
func (s *Server) reserveOutput() (string, error) {
	f, err := os.CreateTemp(s.cfg.UploadDir, "preview-*.mp4")
	if err != nil {
		return "", fmt.Errorf("failed to create preview file: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return name, nil
}

func (s *Server) publicPath(outputPath string) string {
	return strings.TrimRight(s.cfg.PublicURL, "/") +
		"/uploads/" + filepath.Base(outputPath)
}

func (s *Server) uploadFailed(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}
