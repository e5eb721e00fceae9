package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/mgpai22/subview/internal/config"
	"github.com/mgpai22/subview/internal/ffmpeg"
	"github.com/mgpai22/subview/internal/server"
	"github.com/mgpai22/subview/internal/video"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP validation and editor server",
	Long: `Serve starts an HTTP server exposing subtitle validation, the entry
editor and video previews. Settings come from the environment or a .env file.

Environment:
  SUBVIEW_PORT           listen port (default 5000)
  SUBVIEW_UPLOAD_DIR     upload and preview directory (default uploads)
  SUBVIEW_PUBLIC_URL     base URL used in preview links
  SUBVIEW_MAX_UPLOAD_MB  request body limit in megabytes (default 512)
  SUBVIEW_FFMPEG_PATH    ffmpeg binary
  SUBVIEW_FFPROBE_PATH   ffprobe binary
  SUBVIEW_FFMPEG_DOWNLOAD  download ffmpeg when missing (default true)

Examples:
  subview serve
  subview serve --port 8080 --upload-dir /tmp/subview
  subview serve --env-file prod.env`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().
		Int("port", 0, "Listen port (overrides SUBVIEW_PORT)")
	serveCmd.Flags().
		String("upload-dir", "", "Upload directory (overrides SUBVIEW_UPLOAD_DIR)")
	serveCmd.Flags().
		String("env-file", "", "Load settings from this .env file")
}

func loadServeConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")

	var (
		cfg *config.Config
		err error
	)
	if envFile != "" {
		cfg, err = config.Load(envFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
		if os.Getenv("SUBVIEW_PUBLIC_URL") == "" {
			cfg.PublicURL = fmt.Sprintf("http://localhost:%d", port)
		}
	}
	if dir, _ := cmd.Flags().GetString("upload-dir"); dir != "" {
		cfg.UploadDir = dir
	}

	return cfg, cfg.Validate()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	resolver := ffmpeg.NewResolver(cfg.FFmpegPath, cfg.FFprobePath)
	resolver.Download = cfg.FFmpegDownload

	processor := video.NewProcessor(resolver, logger.Named("video"))
	srv := server.New(cfg, processor, rulesFromFlags(cmd), logger.Named("server"))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer logger.Sync()
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
